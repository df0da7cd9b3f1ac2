// Package factory generates synthetic, self-consistent user records for registration
// and login flows.
package factory

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
)

const (
	// BirthDateLayout is the ISO calendar date format used for birth dates.
	BirthDateLayout = "2006-01-02"
	// PasswordSuffix guarantees an uppercase letter, a digit and a symbol.
	PasswordSuffix = "A1!"

	passwordRandomLength = 8
	minAge               = 18
	maxAge               = 65
	emailDomain          = "example.com"
)

// UserRecord is a synthetic identity. Treat it as immutable.
type UserRecord struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	BirthDate string `json:"birthDate"`
	Password  string `json:"password"`
}

// FullName returns "First Last".
func (u UserRecord) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Age returns the user's age in whole years at t.
func (u UserRecord) Age(t time.Time) (int, error) {
	birth, err := time.Parse(BirthDateLayout, u.BirthDate)
	if err != nil {
		return 0, fmt.Errorf("invalid birth date %q: %w", u.BirthDate, err)
	}
	return AgeAt(birth, t), nil
}

// Validate checks the record's invariants as of now.
func (u UserRecord) Validate(now time.Time) error {
	var errs []error
	if u.FirstName == "" || !isLetters(u.FirstName) {
		errs = append(errs, fmt.Errorf("first name %q must be non-empty letters", u.FirstName))
	}
	if u.LastName == "" || !isLetters(u.LastName) {
		errs = append(errs, fmt.Errorf("last name %q must be non-empty letters", u.LastName))
	}
	if !strings.Contains(u.Email, "@") {
		errs = append(errs, fmt.Errorf("email %q is not an address", u.Email))
	}
	if err := ValidatePassword(u.Password); err != nil {
		errs = append(errs, err)
	}
	if age, err := u.Age(now); err != nil {
		errs = append(errs, err)
	} else if age < minAge || age > maxAge {
		errs = append(errs, fmt.Errorf("age %d outside [%d, %d]", age, minAge, maxAge))
	}
	return errors.Join(errs...)
}

// ValidatePassword enforces the application's password policy: at least 8 characters
// with an uppercase letter, a digit and a symbol.
func ValidatePassword(pw string) error {
	if len(pw) < passwordRandomLength {
		return fmt.Errorf("password must be at least %d characters", passwordRandomLength)
	}
	var upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			symbol = true
		}
	}
	if !upper || !digit || !symbol {
		return errors.New("password must contain an uppercase letter, a digit and a symbol")
	}
	return nil
}

// AgeAt returns the number of completed years between birth and t.
func AgeAt(birth, t time.Time) int {
	age := t.Year() - birth.Year()
	if t.Month() < birth.Month() || (t.Month() == birth.Month() && t.Day() < birth.Day()) {
		age--
	}
	return age
}

// Option configures a Factory.
type Option func(*Factory)

// WithSeed makes generation reproducible.
func WithSeed(seed int64) Option {
	return func(f *Factory) {
		f.rng = rand.New(rand.NewSource(seed))
		f.entropy = f.rng
	}
}

// WithClock fixes the reference time for birth dates.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// Factory generates UserRecords. It is safe for concurrent use.
type Factory struct {
	mu      sync.Mutex
	rng     *rand.Rand
	entropy io.Reader
	now     func() time.Time
	pw      *password.Generator
}

// New returns a Factory seeded from the clock unless WithSeed is given.
func New(opts ...Option) (*Factory, error) {
	f := &Factory{now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	var reader io.Reader
	if f.entropy != nil {
		reader = lockedReader{f}
	}
	gen, err := password.NewGenerator(&password.GeneratorInput{
		LowerLetters: password.LowerLetters,
		UpperLetters: password.UpperLetters,
		Digits:       password.Digits,
		Symbols:      password.Symbols,
		Reader:       reader,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create password generator: %w", err)
	}
	f.pw = gen
	return f, nil
}

// lockedReader reads from the factory's entropy; callers already hold f.mu.
type lockedReader struct{ f *Factory }

func (r lockedReader) Read(p []byte) (int, error) { return r.f.entropy.Read(p) }

var (
	defaultFactory     *Factory
	defaultFactoryOnce sync.Once
)

// NewUser generates a record from the process-wide factory.
func NewUser() UserRecord {
	defaultFactoryOnce.Do(func() {
		f, err := New()
		if err != nil {
			panic(fmt.Sprintf("factory: %v", err))
		}
		defaultFactory = f
	})
	u, err := defaultFactory.NewUser()
	if err != nil {
		panic(fmt.Sprintf("factory: %v", err))
	}
	return u
}

// NewUser generates a fresh record. Every call yields a distinct email.
func (f *Factory) NewUser() (UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	first := sanitizeName(firstNames[f.rng.Intn(len(firstNames))])
	last := sanitizeName(lastNames[f.rng.Intn(len(lastNames))])

	id, err := f.newUUID()
	if err != nil {
		return UserRecord{}, fmt.Errorf("failed to generate email id: %w", err)
	}

	// Alphanumeric only; the suffix supplies the rest of the policy.
	random, err := f.pw.Generate(passwordRandomLength, f.rng.Intn(4), 0, false, true)
	if err != nil {
		return UserRecord{}, fmt.Errorf("failed to generate password: %w", err)
	}

	return UserRecord{
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(fmt.Sprintf("%s.%s.%s@%s", first, last, strings.ReplaceAll(id.String(), "-", "")[:12], emailDomain)),
		BirthDate: f.birthDate().Format(BirthDateLayout),
		Password:  random + PasswordSuffix,
	}, nil
}

// NewUsers generates n records.
func (f *Factory) NewUsers(n int) ([]UserRecord, error) {
	users := make([]UserRecord, 0, n)
	for i := 0; i < n; i++ {
		u, err := f.NewUser()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (f *Factory) newUUID() (uuid.UUID, error) {
	if f.entropy != nil {
		return uuid.NewRandomFromReader(f.entropy)
	}
	return uuid.NewRandom()
}

// birthDate picks a day uniformly among those giving an age in [minAge, maxAge] today.
func (f *Factory) birthDate() time.Time {
	now := f.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	latest := today.AddDate(-minAge, 0, 0)
	earliest := today.AddDate(-(maxAge + 1), 0, 1)
	// AddDate normalizes Feb 29 forward to Mar 1, which would be one day too young.
	for AgeAt(latest, today) < minAge {
		latest = latest.AddDate(0, 0, -1)
	}

	days := int(latest.Sub(earliest).Hours()/24) + 1
	return earliest.AddDate(0, 0, f.rng.Intn(days))
}

// sanitizeName keeps letters only, as the registration form rejects anything else.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return r
		}
		return -1
	}, name)
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
