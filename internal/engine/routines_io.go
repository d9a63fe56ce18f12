package engine

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"habitline/internal/storage"
)

type routineFile struct {
	Routines map[storage.Category]map[int]storage.Routine `yaml:"routines"`
}

// ExportRoutines writes every weekday template as YAML.
func (s *Service) ExportRoutines(w io.Writer) error {
	st, err := s.State()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(routineFile{Routines: st.Routines}); err != nil {
		return fmt.Errorf("encode routines: %w", err)
	}
	return enc.Close()
}

// ImportRoutines reads a YAML file produced by ExportRoutines. Days present
// in the file replace the stored templates; other days are kept.
func (s *Service) ImportRoutines(ctx context.Context, r io.Reader) (int, error) {
	var f routineFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return 0, fmt.Errorf("decode routines: %w", err)
	}
	count := 0
	for cat, days := range f.Routines {
		if !cat.IsValid() {
			return 0, ValidationError{Field: "category", Reason: "unknown category " + quote(string(cat))}
		}
		for wd, routine := range days {
			if wd < 0 || wd > 6 {
				return 0, ValidationError{Field: "weekday", Reason: fmt.Sprintf("%d is not 0..6", wd)}
			}
			name, err := normalizeText("routine name", routine.Name)
			if err != nil {
				return 0, err
			}
			routine.Name = name
			days[wd] = routine
			count++
		}
	}
	if count == 0 {
		return 0, ValidationError{Field: "routines", Reason: "file has no routines"}
	}

	today, wd := s.Today(), s.weekday()
	err := s.mutate(ctx, "import routines", func(st *storage.State) error {
		for cat, days := range f.Routines {
			if st.Routines[cat] == nil {
				st.Routines[cat] = map[int]storage.Routine{}
			}
			for day, routine := range days {
				routine.Subs = cleanSubs(routine.Subs)
				st.Routines[cat][day] = routine
			}
		}
		generateRoutines(st, wd, today)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
