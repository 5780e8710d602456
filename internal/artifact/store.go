// Package artifact re-exports the core artifact abstractions and selects
// a backend from the environment.
package artifact

import (
	"context"
	"fmt"
	"os"

	"rigcore/internal/artifact/core"
	"rigcore/internal/artifact/fs"
	memorystore "rigcore/internal/artifact/memory"
	s3store "rigcore/internal/artifact/s3"
)

type (
	// Driver identifies an artifact backend driver.
	Driver = core.Driver
	// PutOptions configures an artifact write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored artifact metadata.
	Info = core.Info
	// Store is the interface for artifact storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation a driver does not support.
var ErrUnsupported = core.ErrUnsupported

// NewFilesystem constructs a filesystem-backed store rooted at path.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// NewMemory returns an in-memory store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// S3Config holds explicit S3 construction parameters.
type S3Config = s3store.Config

// NewS3 constructs an S3-backed store from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return s3store.New(ctx, cfg)
}

// NewMockS3ForTests exposes the in-memory S3 mock for cross-package tests.
func NewMockS3ForTests() Store { return s3store.NewMockForTests() }

// Open selects a Store implementation using environment variables.
//
//	RIGCORE_ARTIFACT_DRIVER: fs|s3|memory (default fs)
//	RIGCORE_ARTIFACT_FS_ROOT: directory root when driver=fs (default ./rigdata)
//	(S3 variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("RIGCORE_ARTIFACT_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("RIGCORE_ARTIFACT_FS_ROOT"))
	case DriverS3:
		return s3store.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown artifact driver %s", driver)
	}
}
