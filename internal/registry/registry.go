package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Zerocode-sean/nba-prediction-system/internal/model"
)

// The four artifacts a ready registry holds. The contract with the artifact
// directory is "load by name, fail per-name if absent".
const (
	WinLossModelFile    = "win_loss_model.json"
	OverUnderModelFile  = "over_under_model.json"
	WinLossScalerFile   = "win_loss_scaler.json"
	OverUnderScalerFile = "over_under_scaler.json"
)

// ArtifactNames lists the artifact file names in canonical order.
var ArtifactNames = []string{WinLossModelFile, OverUnderModelFile, WinLossScalerFile, OverUnderScalerFile}

// Artifacts is a complete set, used for Save and handed out by Snapshot.
type Artifacts struct {
	WinLossModel    model.Classifier
	OverUnderModel  model.Classifier
	WinLossScaler   model.Scaler
	OverUnderScaler model.Scaler
}

func (a Artifacts) complete() bool {
	return a.WinLossModel != nil && a.OverUnderModel != nil && a.WinLossScaler != nil && a.OverUnderScaler != nil
}

// LoadResult maps artifact file name to its load error; nil means loaded.
type LoadResult map[string]error

// Failed returns the names of artifacts that did not load, in canonical order.
func (r LoadResult) Failed() []string {
	var out []string
	for _, name := range ArtifactNames {
		if r[name] != nil {
			out = append(out, name)
		}
	}
	return out
}

// Registry caches fitted model artifacts. It never trains or mutates one.
// References are swapped under a lock, so a reload cannot split the set an
// in-flight prediction grabbed via Snapshot.
type Registry struct {
	mu   sync.RWMutex
	arts Artifacts
}

// New returns an empty registry; nothing is loaded until Load or Save.
func New() *Registry {
	return &Registry{}
}

// Load attempts all four artifacts in dir independently. A failed artifact is
// reported in the result and leaves any previously held reference in place;
// the registry may end up partial, which Ready reflects.
func (g *Registry) Load(dir string) LoadResult {
	res := make(LoadResult, len(ArtifactNames))

	wlModel, err := loadClassifier(filepath.Join(dir, WinLossModelFile))
	res[WinLossModelFile] = err
	ouModel, err := loadClassifier(filepath.Join(dir, OverUnderModelFile))
	res[OverUnderModelFile] = err
	wlScaler, err := loadScaler(filepath.Join(dir, WinLossScalerFile))
	res[WinLossScalerFile] = err
	ouScaler, err := loadScaler(filepath.Join(dir, OverUnderScalerFile))
	res[OverUnderScalerFile] = err

	g.mu.Lock()
	if res[WinLossModelFile] == nil {
		g.arts.WinLossModel = wlModel
	}
	if res[OverUnderModelFile] == nil {
		g.arts.OverUnderModel = ouModel
	}
	if res[WinLossScalerFile] == nil {
		g.arts.WinLossScaler = wlScaler
	}
	if res[OverUnderScalerFile] == nil {
		g.arts.OverUnderScaler = ouScaler
	}
	g.mu.Unlock()
	return res
}

func loadClassifier(path string) (model.Classifier, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return model.UnmarshalClassifier(b)
}

func loadScaler(path string) (model.Scaler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return model.UnmarshalScaler(b)
}

// Ready reports whether all four artifacts are loaded.
func (g *Registry) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.arts.complete()
}

// Status reports per-artifact load state, keyed by file name.
func (g *Registry) Status() map[string]bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return map[string]bool{
		WinLossModelFile:    g.arts.WinLossModel != nil,
		OverUnderModelFile:  g.arts.OverUnderModel != nil,
		WinLossScalerFile:   g.arts.WinLossScaler != nil,
		OverUnderScalerFile: g.arts.OverUnderScaler != nil,
	}
}

// Snapshot returns the current artifact set and whether it is complete.
// Callers doing several inferences should take one snapshot so a concurrent
// reload cannot hand them a mixed set.
func (g *Registry) Snapshot() (Artifacts, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.arts, g.arts.complete()
}

// Save persists a complete artifact set to dir and then makes it the in-memory
// set. Files are staged to temp names and renamed into place; on any failure
// the previously loaded artifacts remain authoritative and temp files are
// removed.
func (g *Registry) Save(dir string, a Artifacts) error {
	if !a.complete() {
		return errors.New("save: incomplete artifact set")
	}

	type staged struct {
		name string
		blob []byte
	}
	var files []staged
	for _, m := range []struct {
		name string
		c    model.Classifier
	}{
		{WinLossModelFile, a.WinLossModel},
		{OverUnderModelFile, a.OverUnderModel},
	} {
		b, err := model.MarshalClassifier(m.c)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", m.name, err)
		}
		files = append(files, staged{m.name, b})
	}
	for _, s := range []struct {
		name string
		s    model.Scaler
	}{
		{WinLossScalerFile, a.WinLossScaler},
		{OverUnderScalerFile, a.OverUnderScaler},
	} {
		b, err := model.MarshalScaler(s.s)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", s.name, err)
		}
		files = append(files, staged{s.name, b})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}

	var tmps []string
	cleanup := func() {
		for _, p := range tmps {
			os.Remove(p)
		}
	}
	for _, sf := range files {
		f, err := os.CreateTemp(dir, sf.name+".tmp")
		if err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", sf.name, err)
		}
		tmps = append(tmps, f.Name())
		if _, err := f.Write(sf.blob); err != nil {
			f.Close()
			cleanup()
			return fmt.Errorf("stage %s: %w", sf.name, err)
		}
		if err := f.Close(); err != nil {
			cleanup()
			return fmt.Errorf("stage %s: %w", sf.name, err)
		}
	}
	for i, sf := range files {
		if err := os.Rename(tmps[i], filepath.Join(dir, sf.name)); err != nil {
			for _, p := range tmps[i:] {
				os.Remove(p)
			}
			return fmt.Errorf("commit %s: %w", sf.name, err)
		}
	}

	g.mu.Lock()
	g.arts = a
	g.mu.Unlock()
	return nil
}
