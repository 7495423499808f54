package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// File permission constants
const (
	DirPermission  = 0o755
	FilePermission = 0o644 // guest file must be readable through the read-only mount
)

// GuestFileName is the name of the program file inside the workspace
const GuestFileName = "script.py"

// Handle identifies one run's private workspace directory
type Handle struct {
	ID       string
	Dir      string
	CodePath string
}

// FileSystem defines an interface for file system operations
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(filename string, data []byte, perm os.FileMode) error
	RemoveAll(path string) error
}

// RealFileSystem implements FileSystem using actual file system operations
type RealFileSystem struct{}

func (RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (RealFileSystem) WriteFile(filename string, data []byte, perm os.FileMode) error {
	return os.WriteFile(filename, data, perm)
}

func (RealFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Manager creates and destroys per-run workspace directories
type Manager struct {
	logger *zap.Logger
	fs     FileSystem
	root   string
}

// ManagerOption defines a functional option for Manager
type ManagerOption func(*Manager)

// WithFileSystem sets the FileSystem for Manager
func WithFileSystem(fs FileSystem) ManagerOption {
	return func(m *Manager) {
		m.fs = fs
	}
}

// NewManager creates a new Manager rooted at the given directory.
// An empty root falls back to the system temp directory.
func NewManager(logger *zap.Logger, root string, opts ...ManagerOption) *Manager {
	if root == "" {
		root = os.TempDir()
	}

	manager := &Manager{
		logger: logger,
		fs:     &RealFileSystem{},
		root:   root,
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// Create allocates a fresh, uniquely named workspace directory and writes
// the submitted program text into it. The directory name is derived from a
// freshly generated UUID, never from caller input.
func (m *Manager) Create(code string) (*Handle, error) {
	id := uuid.NewString()
	dir := filepath.Join(m.root, "safexec-"+id)

	if err := m.fs.MkdirAll(dir, DirPermission); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir: %w", err)
	}

	codePath := filepath.Join(dir, GuestFileName)
	if err := m.fs.WriteFile(codePath, []byte(code), FilePermission); err != nil {
		if rmErr := m.fs.RemoveAll(dir); rmErr != nil {
			m.logger.Error("failed to remove workspace after write failure",
				zap.String("path", dir), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to write guest program: %w", err)
	}

	return &Handle{
		ID:       id,
		Dir:      dir,
		CodePath: codePath,
	}, nil
}

// Destroy removes the workspace directory and all its contents. Removal is
// best-effort: a failure is logged and never surfaced as the run's outcome.
func (m *Manager) Destroy(h *Handle) {
	if h == nil {
		return
	}

	if err := m.fs.RemoveAll(h.Dir); err != nil {
		m.logger.Error("failed to remove workspace",
			zap.String("path", h.Dir), zap.Error(err))
	}
}
