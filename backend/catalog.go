// Package backend resolves backend families and builds the backend specs
// a workflow step receives.
//
// Families are declared in an embedded CUE catalog (catalog.cue) and
// compiled on first use. The catalog is the single source of truth for
// which remote components exist, how they are imported, and which
// device/shots combinations they accept.
package backend

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed catalog.cue
var catalogSource []byte

// Family describes one remote backend component: its git import, the
// python entrypoint the workflow step calls, and the sampling rules the
// device enforces before submitting anything.
type Family struct {
	Name            string   `json:"-"`
	Component       string   `json:"component"`
	Repository      string   `json:"repository"`
	Branch          string   `json:"branch"`
	Module          string   `json:"module"`
	Function        string   `json:"function"`
	DeviceRequired  bool     `json:"deviceRequired"`
	TokenRequired   bool     `json:"tokenRequired"`
	DefaultShots    int      `json:"defaultShots"`
	AllAnalytic     bool     `json:"allAnalytic"`
	AnalyticDevices []string `json:"analyticDevices"`
	ReversedBits    bool     `json:"reversedBits"`
}

// SupportsAnalytic reports whether the family accepts shots == 0 on the
// given device.
func (f *Family) SupportsAnalytic(device string) bool {
	if f.AllAnalytic {
		return true
	}
	for _, d := range f.AnalyticDevices {
		if d == device {
			return true
		}
	}
	return false
}

var (
	catalogOnce sync.Once
	catalog     map[string]*Family
	catalogErr  error
)

// loadCatalog compiles the embedded catalog once and decodes it into
// Family values. Uses CUE SDK's Go API directly (not CLI subprocess).
func loadCatalog() (map[string]*Family, error) {
	catalogOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileBytes(catalogSource, cue.Filename("catalog.cue"))
		if err := v.Err(); err != nil {
			catalogErr = formatCUEError(err)
			return
		}

		familiesVal := v.LookupPath(cue.ParsePath("families"))
		if err := familiesVal.Err(); err != nil {
			catalogErr = formatCUEError(err)
			return
		}

		decoded := make(map[string]*Family)
		if err := familiesVal.Decode(&decoded); err != nil {
			catalogErr = formatCUEError(err)
			return
		}
		for name, f := range decoded {
			f.Name = name
		}
		catalog = decoded
	})
	return catalog, catalogErr
}

// Families returns every declared backend family, sorted by name.
func Families() ([]*Family, error) {
	loaded, err := loadCatalog()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(loaded))
	for name := range loaded {
		names = append(names, name)
	}
	sort.Strings(names)

	families := make([]*Family, 0, len(names))
	for _, name := range names {
		families = append(families, loaded[name])
	}
	return families, nil
}

// Lookup returns the named backend family.
func Lookup(name string) (*Family, error) {
	loaded, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	f, ok := loaded[name]
	if !ok {
		return nil, &UnknownBackendError{Name: name, Reason: "not in the backend catalog"}
	}
	return f, nil
}

// CatalogError reports an invalid backend catalog with source position.
type CatalogError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CatalogError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := cueerrors.Positions(firstErr)
	if len(positions) > 0 {
		return &CatalogError{
			Field:   "catalog",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
