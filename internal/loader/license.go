package loader

import (
	"fmt"

	"github.com/unidoc/unioffice/common/license"
)

// InitLicense registers the UniDoc license key that unioffice requires
// before it will parse documents. With an empty key the loader still
// works, but DOCX and XLSX files fail per-file at parse time.
func InitLicense(apiKey string) error {
	if apiKey == "" {
		return nil
	}
	if err := license.SetMeteredKey(apiKey); err != nil {
		return fmt.Errorf("set unidoc license key: %w", err)
	}
	return nil
}
