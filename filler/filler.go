// Package filler writes a known-good baseline into a form's basic fields.
package filler

import (
	"context"

	"go.uber.org/zap"

	"github.com/rlch/formrun"
	"github.com/rlch/formrun/driver"
)

// Basics are the values written by FillBasics.
type Basics struct {
	FirstName string
	LastName  string
	Email     string
	Gender    string
	Phone     string
}

// Defaults is the baseline every case starts from unless overridden.
var Defaults = Basics{
	FirstName: "Kapil",
	LastName:  "Rokaya",
	Email:     "kapil@example.com",
	Gender:    "Male",
	Phone:     "9876543210",
}

// Resolve applies overrides on top of Defaults.
func Resolve(o *formrun.FillOverrides) Basics {
	b := Defaults
	if o == nil {
		return b
	}

	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&b.FirstName, o.FirstName)
	set(&b.LastName, o.LastName)
	set(&b.Email, o.Email)
	set(&b.Gender, o.Gender)
	set(&b.Phone, o.Phone)

	return b
}

// Filler writes Basics through a driver.
type Filler struct {
	driver *driver.Driver
	verify bool
	logger *zap.Logger
}

// Option configures a Filler.
type Option func(*Filler)

// WithVerify waits for the gender selection to register before returning.
func WithVerify(verify bool) Option {
	return func(f *Filler) {
		f.verify = verify
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Filler) {
		f.logger = l
	}
}

// New creates a Filler.
func New(d *driver.Driver, opts ...Option) *Filler {
	f := &Filler{driver: d, logger: zap.NewNop()}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// FillBasics writes first name, last name, email and phone, then selects the
// gender. An unknown gender is rejected before any field is touched.
func (f *Filler) FillBasics(ctx context.Context, b Basics) error {
	form := f.driver.Form()
	names := form.Basics

	gender, err := form.Field(names.Gender)
	if err != nil {
		return err
	}

	if _, err := gender.Control(b.Gender); err != nil {
		return &formrun.InvalidGenderError{Value: b.Gender}
	}

	f.logger.Debug("fill basics", zap.String("gender", b.Gender))

	for _, w := range []struct{ field, value string }{
		{names.FirstName, b.FirstName},
		{names.LastName, b.LastName},
		{names.Email, b.Email},
		{names.Phone, b.Phone},
	} {
		if err := f.driver.SetValue(ctx, w.field, w.value); err != nil {
			return err
		}
	}

	if err := f.driver.Select(ctx, names.Gender, b.Gender); err != nil {
		return err
	}

	if f.verify {
		return f.driver.AwaitChecked(ctx, names.Gender, b.Gender)
	}

	return nil
}
