package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	_ "modernc.org/sqlite"
)

// vacuumInto writes a consistent point-in-time copy of the database at src
// to dest. VACUUM INTO works correctly under WAL mode.
func vacuumInto(ctx context.Context, src, dest string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", src))
	if err != nil {
		return fmt.Errorf("backup: failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("backup: database unreachable: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		return fmt.Errorf("backup: vacuum into failed: %w", err)
	}
	return nil
}

// checkIntegrity runs PRAGMA integrity_check against the snapshot.
func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("backup: failed to open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("backup: integrity check failed to run: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup: integrity check failed: %s", result)
	}
	return nil
}

// copyVerified copies src over dest, checking integrity on both sides.
// dest must not be open in another connection.
func copyVerified(ctx context.Context, src, dest string) error {
	if err := checkIntegrity(ctx, src); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("backup: failed to open snapshot: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("backup: failed to create target: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("backup: copy failed: %w", err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("backup: sync failed: %w", err)
	}

	return checkIntegrity(ctx, dest)
}
