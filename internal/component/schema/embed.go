package schema

import _ "embed"

//go:embed installer-config.schema.json
var InstallerConfigSchema []byte
