// Package practiceform catalogs the demoqa practice registration form and the
// scenario suite that exercises it.
package practiceform

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rlch/formrun"
)

// URL is the form's public entry point.
const URL = "https://demoqa.com/automation-practice-form"

// Field names.
const (
	FirstName   = "firstName"
	LastName    = "lastName"
	Email       = "email"
	Gender      = "gender"
	Mobile      = "mobile"
	DateOfBirth = "dateOfBirth"
	Hobbies     = "hobbies"
	Picture     = "picture"
	Address     = "address"
	State       = "state"
	City        = "city"
)

// SurfaceModal is the dialog that holds the confirmation.
const SurfaceModal = "modal"

// ConfirmationText is shown once a submission is accepted.
const ConfirmationText = "Thanks for submitting the form"

// Form returns the catalog. Each call returns a fresh copy.
func Form() *formrun.Form {
	menu := formrun.ClassContains("-menu")

	return &formrun.Form{
		Name:   "practice-form",
		URL:    URL,
		Root:   formrun.CSS("body"),
		Submit: formrun.ByID("submit"),
		Surfaces: map[string]formrun.Locator{
			formrun.SurfaceConfirmation: formrun.ByID("example-modal-sizes-title-lg"),
			SurfaceModal:                formrun.CSS(".modal-content"),
		},
		ErrorClass:         "error",
		DefaultBorderColor: "rgb(206, 212, 218)",
		Basics: formrun.BasicFields{
			FirstName: FirstName,
			LastName:  LastName,
			Email:     Email,
			Gender:    Gender,
			Phone:     Mobile,
		},
		Fields: []*formrun.FieldSpec{
			{Name: FirstName, Kind: formrun.KindText, Locator: formrun.ByID("firstName"), Required: true},
			{Name: LastName, Kind: formrun.KindText, Locator: formrun.ByID("lastName"), Required: true},
			{Name: Email, Kind: formrun.KindText, Locator: formrun.ByID("userEmail"), Required: true},
			{
				Name:     Gender,
				Kind:     formrun.KindRadio,
				Locator:  formrun.CSS(`[name="gender"]`),
				Required: true,
				Options: map[string]string{
					"Male":   "gender-radio-1",
					"Female": "gender-radio-2",
					"Other":  "gender-radio-3",
				},
			},
			{Name: Mobile, Kind: formrun.KindText, Locator: formrun.ByID("userNumber"), Required: true},
			{
				Name:    DateOfBirth,
				Kind:    formrun.KindDate,
				Locator: formrun.ByID("dateOfBirthInput"),
				Date: &formrun.DateParts{
					Year:  formrun.CSS(".react-datepicker__year-select"),
					Month: formrun.CSS(".react-datepicker__month-select"),
					Day:   ".react-datepicker__day--%03d:not(.react-datepicker__day--outside-month)",
				},
			},
			{
				Name:    Hobbies,
				Kind:    formrun.KindCheckbox,
				Locator: formrun.CSS(`[id^="hobbies-checkbox"]`),
				Options: map[string]string{
					"Sports":  "hobbies-checkbox-1",
					"Reading": "hobbies-checkbox-2",
					"Music":   "hobbies-checkbox-3",
				},
			},
			{Name: Picture, Kind: formrun.KindFile, Locator: formrun.ByID("uploadPicture")},
			{Name: Address, Kind: formrun.KindText, Locator: formrun.ByID("currentAddress")},
			{Name: State, Kind: formrun.KindSelect, Locator: formrun.ByID("state"), Menu: &menu},
			{Name: City, Kind: formrun.KindSelect, Locator: formrun.ByID("city"), Menu: &menu},
		},
	}
}

//go:embed scenarios.yaml
var scenarios []byte

//go:embed fixtures
var fixtures embed.FS

// Suite returns the built-in scenario suite.
func Suite() (*formrun.Suite, error) {
	s, err := formrun.ParseSuite(scenarios)
	if err != nil {
		return nil, fmt.Errorf("practiceform: %w", err)
	}

	s.Path = "practiceform/scenarios.yaml"

	return s, nil
}

// WriteFixtures copies the upload fixtures into dir.
func WriteFixtures(dir string) error {
	return fs.WalkDir(fixtures, "fixtures", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		data, err := fixtures.ReadFile(path)
		if err != nil {
			return err
		}

		return os.WriteFile(filepath.Join(dir, d.Name()), data, 0o600)
	})
}
