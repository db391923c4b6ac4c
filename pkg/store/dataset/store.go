package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/shahul3595/SFCAudit/pkg/models/domain"
)

// Row is one record of a partition, keyed by column name. Cell values stay
// raw strings; numeric coercion happens at the point of use.
type Row map[string]string

// Config names the registry partition and the columns the entity list is
// built from. Defaults match the state questionnaire export layout.
type Config struct {
	RegistryTable    string `mapstructure:"registry_table"`
	IDColumn         string `mapstructure:"id_column"`
	NameColumn       string `mapstructure:"name_column"`
	DistrictColumn   string `mapstructure:"district_column"`
	PopulationColumn string `mapstructure:"population_column"`
}

func DefaultConfig() Config {
	return Config{
		RegistryTable:    "p1_1_1_2",
		IDColumn:         "mp_id",
		NameColumn:       "municipality_name",
		DistrictColumn:   "district_name",
		PopulationColumn: "p1_1_3_4_tot_25_no",
	}
}

// Store holds all loaded partitions in memory. Read-only after Load.
type Store struct {
	cfg      Config
	tables   map[string]map[string][]Row
	loose    map[string][]Row // partitions without an ID column
	entities []domain.Entity
	byID     map[string]int
}

// filePrefix strips the export prefix from partition filenames, e.g.
// mp_270126_p1_1_1_2.csv -> p1_1_1_2.
var filePrefix = regexp.MustCompile(`^mp_\d+_`)

// Load reads every CSV partition under dir. Files that fail to parse are
// logged and skipped; a missing registry partition is the only fatal case
// since no entity list can be built without it.
func Load(dir string, cfg Config, logger zerolog.Logger) (*Store, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset dir %q: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no CSV partitions found in %q", dir)
	}
	sort.Strings(paths)

	s := &Store{
		cfg:    cfg,
		tables: make(map[string]map[string][]Row),
		loose:  make(map[string][]Row),
		byID:   make(map[string]int),
	}

	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".csv")
		name = filePrefix.ReplaceAllString(name, "")

		rows, loadErr := readCSV(path)
		if loadErr != nil {
			logger.Warn().Err(loadErr).Str("table", name).Msg("failed to load partition")
			continue
		}

		if _, hasID := rows.header[cfg.IDColumn]; hasID {
			byEntity := make(map[string][]Row)
			for _, r := range rows.records {
				id := strings.TrimSpace(r[cfg.IDColumn])
				if id == "" {
					continue
				}
				byEntity[id] = append(byEntity[id], r)
			}
			s.tables[name] = byEntity
		} else {
			s.loose[name] = rows.records
		}
		logger.Info().Str("table", name).Int("rows", len(rows.records)).Msg("loaded partition")
	}

	if err := s.buildRegistry(); err != nil {
		return nil, err
	}
	logger.Info().Int("tables", len(s.tables)+len(s.loose)).Int("entities", len(s.entities)).Msg("dataset ready")
	return s, nil
}

func (s *Store) buildRegistry() error {
	reg, ok := s.tables[s.cfg.RegistryTable]
	if !ok {
		return fmt.Errorf("registry partition %q not found; cannot build entity list", s.cfg.RegistryTable)
	}

	ids := make([]string, 0, len(reg))
	for id := range reg {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		row := reg[id][0]
		e := domain.Entity{
			ID:       id,
			Name:     strings.TrimSpace(row[s.cfg.NameColumn]),
			District: strings.TrimSpace(row[s.cfg.DistrictColumn]),
		}
		if raw, ok := row[s.cfg.PopulationColumn]; ok {
			if pop, err := cast.ToFloat64E(strings.TrimSpace(raw)); err == nil {
				e.Population = &pop
			}
		}
		s.byID[id] = len(s.entities)
		s.entities = append(s.entities, e)
	}
	return nil
}

// Entities returns the registry list, sorted by entity ID.
func (s *Store) Entities() []domain.Entity { return s.entities }

// EntityIDs returns all registry IDs, sorted.
func (s *Store) EntityIDs() []string {
	ids := make([]string, len(s.entities))
	for i, e := range s.entities {
		ids[i] = e.ID
	}
	return ids
}

// Entity looks up a registry entry by ID.
func (s *Store) Entity(id string) (domain.Entity, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Entity{}, false
	}
	return s.entities[i], true
}

// HasTable reports whether a partition was loaded.
func (s *Store) HasTable(table string) bool {
	if _, ok := s.tables[table]; ok {
		return true
	}
	_, ok := s.loose[table]
	return ok
}

// Rows returns the partition rows for one entity. Partitions without an ID
// column are shared across entities and returned whole.
func (s *Store) Rows(id, table string) []Row {
	if byEntity, ok := s.tables[table]; ok {
		return byEntity[id]
	}
	return s.loose[table]
}

type csvTable struct {
	header  map[string]int
	records []Row
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	raw, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s is empty", filepath.Base(path))
	}

	header := raw[0]
	// Exports written on Windows lead with a UTF-8 BOM.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	t := &csvTable{header: index}
	for _, rec := range raw[1:] {
		row := make(Row, len(header))
		for col, i := range index {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		t.records = append(t.records, row)
	}
	return t, nil
}
