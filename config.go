package crm

import "github.com/goliatone/go-crm/internal/runtimeconfig"

var (
	ErrImportsRequireLeads                = runtimeconfig.ErrImportsRequireLeads
	ErrCommandsDispatcherRequiresCommands = runtimeconfig.ErrCommandsDispatcherRequiresCommands
	ErrSearchContextKeyRequired           = runtimeconfig.ErrSearchContextKeyRequired
	ErrSearchRetryDelayInvalid            = runtimeconfig.ErrSearchRetryDelayInvalid
	ErrLeadsKPStaleAfterInvalid           = runtimeconfig.ErrLeadsKPStaleAfterInvalid
	ErrCacheTTLInvalid                    = runtimeconfig.ErrCacheTTLInvalid
	ErrLoggingProviderRequired            = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown             = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid                = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid               = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	StorageConfig    = runtimeconfig.StorageConfig
	CacheConfig      = runtimeconfig.CacheConfig
	NavigationConfig = runtimeconfig.NavigationConfig
	SearchConfig     = runtimeconfig.SearchConfig
	LeadsConfig      = runtimeconfig.LeadsConfig
	Features         = runtimeconfig.Features
	CommandsConfig   = runtimeconfig.CommandsConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
