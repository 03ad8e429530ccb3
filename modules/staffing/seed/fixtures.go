// Package seed loads staffing fixtures from YAML and upserts them through the
// staffing services. Running it again updates the same rows in place.
package seed

import (
	"os"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
)

const dateLayout = "2006-01-02"

var ErrUnsupportedVersion = errors.New("unsupported fixtures version")

// Fixtures is the on-disk shape of a seed file. Taxonomy items are referenced
// by name, everything else by id.
type Fixtures struct {
	Version                int                        `yaml:"version"`
	Taxonomy               map[taxonomy.Kind][]string `yaml:"taxonomy"`
	Employees              []EmployeeFixture          `yaml:"employees"`
	Projects               []ProjectFixture           `yaml:"projects"`
	Offers                 []OfferFixture             `yaml:"offers"`
	DocumentConfigurations []DocConfigFixture         `yaml:"document_configurations"`
}

type EmployeeFixture struct {
	ID              string            `yaml:"id"`
	FirstName       string            `yaml:"first_name"`
	LastName        string            `yaml:"last_name"`
	Title           string            `yaml:"title"`
	Email           string            `yaml:"email"`
	Description     string            `yaml:"description"`
	ExperienceSince string            `yaml:"experience_since"`
	HourlyRate      string            `yaml:"hourly_rate"`
	Fields          []string          `yaml:"fields"`
	Roles           []string          `yaml:"roles"`
	SoftSkills      []string          `yaml:"soft_skills"`
	HardSkills      map[string]string `yaml:"hard_skills"`
	Languages       map[string]string `yaml:"languages"`
	Projects        []string          `yaml:"projects"`
}

type ProjectFixture struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Client      string            `yaml:"client"`
	Description string            `yaml:"description"`
	Start       string            `yaml:"start"`
	End         string            `yaml:"end"`
	Fields      []string          `yaml:"fields"`
	HardSkills  []string          `yaml:"hard_skills"`
	Activities  []ActivityFixture `yaml:"activities"`
}

type ActivityFixture struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Employees   []string `yaml:"employees"`
}

type OfferFixture struct {
	ID          string            `yaml:"id"`
	Title       string            `yaml:"title"`
	Client      string            `yaml:"client"`
	Description string            `yaml:"description"`
	Status      string            `yaml:"status"`
	DailyRate   string            `yaml:"daily_rate"`
	ValidUntil  string            `yaml:"valid_until"`
	Properties  []PropertyFixture `yaml:"properties"`
}

type PropertyFixture struct {
	Employee   string            `yaml:"employee"`
	Headline   string            `yaml:"headline"`
	Fields     []string          `yaml:"fields"`
	Roles      []string          `yaml:"roles"`
	SoftSkills []string          `yaml:"soft_skills"`
	Projects   []string          `yaml:"projects"`
	HardSkills map[string]string `yaml:"hard_skills"`
	Languages  map[string]string `yaml:"languages"`
}

type DocConfigFixture struct {
	ID               string `yaml:"id"`
	Title            string `yaml:"title"`
	Offer            string `yaml:"offer"`
	ShowCover        *bool  `yaml:"show_cover"`
	ShowRequirements *bool  `yaml:"show_requirements"`
	ShowContact      *bool  `yaml:"show_contact"`
	ShowProjects     *bool  `yaml:"show_projects"`
}

func LoadFile(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read fixtures")
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, "decode fixtures")
	}
	if f.Version != 1 {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d", f.Version)
	}
	for kind := range f.Taxonomy {
		if !kind.Valid() {
			return nil, errors.Errorf("unknown taxonomy kind %q", kind)
		}
	}
	return &f, nil
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, errors.Wrapf(err, "%s %q", field, s)
	}
	return id, nil
}

func parseIDs(field string, in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := parseID(field, s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, "%s %q", field, s)
	}
	return &t, nil
}

func parseDecimal(field, s string) (*decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, "%s %q", field, s)
	}
	return &d, nil
}

func flag(v *bool) bool {
	return v == nil || *v
}
