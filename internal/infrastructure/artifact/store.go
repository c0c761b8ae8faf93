// Package artifact persists the deployed training bundle on the local file
// system.
//
// Each commit writes its files into runs/<run id>/ and then atomically
// replaces manifest.json, which names the active run and the SHA-256 of every
// file. Readers always start from the manifest, so they see either the old
// bundle or the new one.
package artifact

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/encoding"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/infrastructure/ml"
)

const (
	ManifestName = "manifest.json"
	MetricsName  = "metrics.json"
	ReportName   = "report.png"

	manifestVersion = 1
	runsDir         = "runs"

	// Previous runs kept on disk so a reader that fetched the old manifest
	// can still finish.
	keepRuns = 2
)

// Manifest describes the active bundle.
type Manifest struct {
	Version   int               `json:"version"`
	RunID     uuid.UUID         `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	ModelKind string            `json:"model_kind"`
	Files     map[string]string `json:"files"`
}

// Store implements port.ArtifactStore.
type Store struct {
	dir    string
	codec  port.ModelCodec
	logger *slog.Logger

	mu sync.Mutex // serializes commits
}

var _ port.ArtifactStore = (*Store)(nil)

// NewStore opens (creating if needed) an artifact directory.
func NewStore(dir string, codec port.ModelCodec, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, runsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &Store{dir: dir, codec: codec, logger: logger}, nil
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

// Commit writes a complete bundle and makes it the active one.
func (s *Store) Commit(ctx context.Context, b port.ArtifactBundle) error {
	if b.Encoders == nil || b.Model == nil {
		return errors.New("artifact bundle requires encoders and a model")
	}

	encData, err := b.Encoders.Marshal()
	if err != nil {
		return fmt.Errorf("marshal encoders: %w", err)
	}
	modelData, err := s.codec.Encode(b.Model)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	metricsData, err := json.MarshalIndent(b.Metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	files := map[string][]byte{
		encoding.ArtifactName: encData,
		ml.ArtifactName:       modelData,
		MetricsName:           metricsData,
	}
	if len(b.Report) > 0 {
		files[ReportName] = b.Report
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runDir := filepath.Join(s.dir, runsDir, b.RunID.String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	manifest := Manifest{
		Version:   manifestVersion,
		RunID:     b.RunID,
		CreatedAt: b.CreatedAt.UTC(),
		ModelKind: b.Model.Kind().String(),
		Files:     make(map[string]string, len(files)),
	}
	for name, data := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeAtomic(filepath.Join(runDir, name), data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		manifest.Files[name] = checksum(data)
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, ManifestName), manifestData); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	s.logger.Info("artifacts committed", "run_id", b.RunID, "dir", runDir)
	s.prune(b.RunID)
	return nil
}

// Load reads and verifies the active bundle.
func (s *Store) Load(ctx context.Context) (port.ArtifactBundle, error) {
	m, err := s.readManifest()
	if err != nil {
		return port.ArtifactBundle{}, err
	}

	encData, err := s.readVerified(m, encoding.ArtifactName)
	if err != nil {
		return port.ArtifactBundle{}, err
	}
	enc, err := encoding.Unmarshal(encData)
	if err != nil {
		return port.ArtifactBundle{}, err
	}

	modelData, err := s.readVerified(m, ml.ArtifactName)
	if err != nil {
		return port.ArtifactBundle{}, err
	}
	trained, err := s.codec.Decode(modelData)
	if err != nil {
		return port.ArtifactBundle{}, err
	}
	if trained.Kind().String() != m.ModelKind {
		return port.ArtifactBundle{}, &apperr.ArtifactCorruptError{
			Artifact: ml.ArtifactName,
			Reason:   fmt.Sprintf("model kind %s does not match manifest %s", trained.Kind(), m.ModelKind),
		}
	}

	metricsData, err := s.readVerified(m, MetricsName)
	if err != nil {
		return port.ArtifactBundle{}, err
	}
	var metrics model.Metrics
	if err := json.Unmarshal(metricsData, &metrics); err != nil {
		return port.ArtifactBundle{}, &apperr.ArtifactCorruptError{Artifact: MetricsName, Reason: "invalid json", Err: err}
	}

	bundle := port.ArtifactBundle{
		RunID:     m.RunID,
		CreatedAt: m.CreatedAt,
		Encoders:  enc,
		Model:     trained,
		Metrics:   metrics,
	}
	if _, ok := m.Files[ReportName]; ok {
		if bundle.Report, err = s.readVerified(m, ReportName); err != nil {
			return port.ArtifactBundle{}, err
		}
	}
	return bundle, ctx.Err()
}

// LoadEncoders reads only the encoder store of the active bundle.
func (s *Store) LoadEncoders(ctx context.Context) (*encoding.Store, error) {
	m, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	data, err := s.readVerified(m, encoding.ArtifactName)
	if err != nil {
		return nil, err
	}
	return encoding.Unmarshal(data)
}

// Report returns the training report image of the active bundle.
func (s *Store) Report(ctx context.Context) ([]byte, error) {
	m, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	if _, ok := m.Files[ReportName]; !ok {
		return nil, apperr.ErrNotFound
	}
	return s.readVerified(m, ReportName)
}

// Manifest returns the active manifest.
func (s *Store) Manifest() (Manifest, error) { return s.readManifest() }

func (s *Store) readManifest() (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ManifestName))
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, apperr.ErrNotFound
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, &apperr.ArtifactCorruptError{Artifact: ManifestName, Reason: "invalid json", Err: err}
	}
	if m.Version != manifestVersion {
		return Manifest{}, &apperr.ArtifactCorruptError{Artifact: ManifestName, Reason: fmt.Sprintf("unsupported version %d", m.Version)}
	}
	if m.RunID == uuid.Nil {
		return Manifest{}, &apperr.ArtifactCorruptError{Artifact: ManifestName, Reason: "missing run id"}
	}
	return m, nil
}

func (s *Store) readVerified(m Manifest, name string) ([]byte, error) {
	want, ok := m.Files[name]
	if !ok {
		return nil, &apperr.ArtifactCorruptError{Artifact: name, Reason: "not listed in manifest"}
	}
	data, err := os.ReadFile(filepath.Join(s.dir, runsDir, m.RunID.String(), name))
	if err != nil {
		return nil, &apperr.ArtifactCorruptError{Artifact: name, Reason: "unreadable", Err: err}
	}
	if got := checksum(data); got != want {
		return nil, &apperr.ArtifactCorruptError{Artifact: name, Reason: "checksum mismatch"}
	}
	return data, nil
}

// prune removes run directories older than the last keepRuns commits.
func (s *Store) prune(current uuid.UUID) {
	entries, err := os.ReadDir(filepath.Join(s.dir, runsDir))
	if err != nil {
		s.logger.Warn("list artifact runs", "error", err)
		return
	}

	type run struct {
		name string
		mod  time.Time
	}
	var runs []run
	for _, e := range entries {
		if !e.IsDir() || e.Name() == current.String() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		runs = append(runs, run{name: e.Name(), mod: info.ModTime()})
	}
	if len(runs) < keepRuns {
		return
	}

	// Newest first; keep keepRuns-1 besides the current run.
	slices.SortFunc(runs, func(a, b run) int { return b.mod.Compare(a.mod) })
	for _, r := range runs[keepRuns-1:] {
		if err := os.RemoveAll(filepath.Join(s.dir, runsDir, r.name)); err != nil {
			s.logger.Warn("remove old artifact run", "run", r.name, "error", err)
		}
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// writeAtomic writes data to a temp file in the destination directory, syncs
// it and renames it over dest.
func writeAtomic(dest string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, dest)
}
