package types

import (
	"fmt"
)

// CurrentSettingsVersion is the current version of the settings struct.
// Increment this value when adding new fields that require default values.
const CurrentSettingsVersion = 3

// Settings represents the portfolio-level configuration stored in the
// database. These are dynamic settings that can be changed without
// redeploying.
type Settings struct {
	// Currency is the ISO 4217 code used for fee display.
	Currency string `json:"currency"`
	// CurrencySymbol is prefixed to formatted amounts.
	CurrencySymbol string `json:"currencySymbol"`

	// DefaultSiteType is applied to created/imported sites that don't
	// specify one.
	DefaultSiteType string `json:"defaultSiteType"`

	// Import settings
	// ImportSheetName is the worksheet/tab the importer expects.
	ImportSheetName string `json:"importSheetName"`
	// ImportHeaderRows is how many leading rows the importer skips.
	ImportHeaderRows int `json:"importHeaderRows"`
}

// MigrateSettings migrates the settings to the current version.
// It returns the migrated settings, a boolean indicating if changes were made,
// and an error if migration failed.
func MigrateSettings(s Settings, currentVersion int) (Settings, bool, error) {
	if currentVersion >= CurrentSettingsVersion {
		return s, false, nil
	}

	migrated := false
	// Loop through versions to apply migrations sequentially
	for version := currentVersion + 1; version <= CurrentSettingsVersion; version++ {
		switch version {
		case 1:
			// version 1: initial
			if s.Currency == "" {
				s.Currency = "GBP"
				migrated = true
			}
			if s.CurrencySymbol == "" {
				s.CurrencySymbol = "£"
				migrated = true
			}
		case 2:
			// version 2: add default site type
			if s.DefaultSiteType == "" {
				s.DefaultSiteType = "Rooftop"
				migrated = true
			}
		case 3:
			// version 3: add import settings
			if s.ImportSheetName == "" {
				s.ImportSheetName = "Portfolio Tracker"
				migrated = true
			}
			if s.ImportHeaderRows == 0 {
				s.ImportHeaderRows = 4
				migrated = true
			}
		default:
			return s, false, fmt.Errorf("unknown settings version: %d", version)
		}
	}

	return s, migrated, nil
}
