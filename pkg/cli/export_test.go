package cli

var (
	GetIndexConfig = getIndexConfig
	RunValidate    = runValidate
)
