package repo

import (
	"context"
	"fmt"
	"os"
	"strings"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// spannerPath is a parsed projects/P/instances/I/databases/D name.
type spannerPath struct {
	Project  string
	Instance string
	Database string
}

func (p spannerPath) instanceName() string {
	return fmt.Sprintf("projects/%s/instances/%s", p.Project, p.Instance)
}

func (p spannerPath) String() string {
	return p.instanceName() + "/databases/" + p.Database
}

func parseSpannerPath(db string) (spannerPath, error) {
	parts := strings.Split(db, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != "instances" || parts[4] != "databases" ||
		parts[1] == "" || parts[3] == "" || parts[5] == "" {
		return spannerPath{}, fmt.Errorf("invalid spanner database %q: want projects/P/instances/I/databases/D", db)
	}
	return spannerPath{Project: parts[1], Instance: parts[3], Database: parts[5]}, nil
}

// MigrateSpanner creates the database if needed and applies the catalog DDL
// unless the table already exists. Against the emulator the instance is
// created too.
func MigrateSpanner(ctx context.Context, db string) error {
	path, err := parseSpannerPath(db)
	if err != nil {
		return err
	}

	if os.Getenv("SPANNER_EMULATOR_HOST") != "" {
		if err := ensureSpannerInstance(ctx, path); err != nil {
			return fmt.Errorf("failed to ensure instance: %w", err)
		}
	}

	adminClient, err := database.NewDatabaseAdminClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	if err := ensureSpannerDatabase(ctx, adminClient, path); err != nil {
		return fmt.Errorf("failed to ensure database: %w", err)
	}

	current, err := adminClient.GetDatabaseDdl(ctx, &databasepb.GetDatabaseDdlRequest{Database: path.String()})
	if err != nil {
		return fmt.Errorf("failed to read database ddl: %w", err)
	}
	for _, stmt := range current.GetStatements() {
		if strings.Contains(stmt, "CREATE TABLE catalog_records") {
			return nil
		}
	}

	op, err := adminClient.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
		Database:   path.String(),
		Statements: SpannerDDL(),
	})
	if err != nil {
		return fmt.Errorf("failed to start DDL update: %w", err)
	}
	if err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to apply DDL: %w", err)
	}
	return nil
}

func ensureSpannerInstance(ctx context.Context, path spannerPath) error {
	instanceAdmin, err := instance.NewInstanceAdminClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create instance admin client: %w", err)
	}
	defer instanceAdmin.Close()

	_, err = instanceAdmin.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: path.instanceName()})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to check instance: %w", err)
	}

	op, err := instanceAdmin.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     "projects/" + path.Project,
		InstanceId: path.Instance,
		Instance: &instancepb.Instance{
			Config:      fmt.Sprintf("projects/%s/instanceConfigs/emulator-config", path.Project),
			DisplayName: path.Instance,
			NodeCount:   1,
		},
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create instance: %w", err)
	}
	// The emulator may finish the operation before Wait is called.
	if _, err := op.Wait(ctx); err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to wait for instance creation: %w", err)
	}
	return nil
}

func ensureSpannerDatabase(ctx context.Context, adminClient *database.DatabaseAdminClient, path spannerPath) error {
	_, err := adminClient.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: path.String()})
	if err == nil {
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to check database: %w", err)
	}

	op, err := adminClient.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
		Parent:          path.instanceName(),
		CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", path.Database),
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for database creation: %w", err)
	}
	return nil
}
