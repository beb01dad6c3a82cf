package constants

import (
	"time"
)

// Executable defaults
const (
	// DefaultExecutable - name of the TALYS binary looked up on PATH
	DefaultExecutable = "talys"

	// DefaultRunTimeout - wall-clock limit for one TALYS run (5 minutes)
	DefaultRunTimeout = 300 * time.Second

	// DefaultGracePeriod - time between SIGTERM and SIGKILL when stopping a run
	DefaultGracePeriod = 5 * time.Second
)

// Workspace layout
const (
	// WorkspacePrefix - prefix of per-run working directories
	WorkspacePrefix = "talys_calc_"

	// InputFileName - composed input written next to the outputs
	InputFileName = "talys.inp"

	// WorkspaceDirPerm - permissions for directories we create
	WorkspaceDirPerm = 0700

	// ArchiveExtension - extension of workspace archives
	ArchiveExtension = ".tar.gz"

	// WorkspaceMinFreeBytes - free space required before a workspace is created (64 MB)
	WorkspaceMinFreeBytes = 64 * 1024 * 1024
)

// Output file patterns (TALYS naming conventions)
const (
	// TotalCrossSectionFile - fixed-name total cross-section table
	TotalCrossSectionFile = "total.tot"

	// ResidualPrefix - prefix of residual production files (rpZZZAAA.tot)
	ResidualPrefix = "rp"

	// TotalsExtension - extension shared by total and residual files
	TotalsExtension = ".tot"

	// SpectrumExtension - per emitted particle spectra
	SpectrumExtension = ".spe"

	// AngularExtension - per incident energy angular distributions
	AngularExtension = ".ang"

	// GammaExtension - per transition gamma production
	GammaExtension = ".gam"

	// ChannelPattern - reaction channel files (e.g. xs000000.L00)
	ChannelPattern = "*.L*"
)

// Parsing
const (
	// MaxLineLength - longest output line the parser accepts (1 MB)
	MaxLineLength = 1024 * 1024

	// ScanBufferSize - initial scanner buffer, grown up to MaxLineLength (64 KB)
	ScanBufferSize = 64 * 1024

	// CopyBufferSize - file copy buffer used when archiving (256 KB)
	CopyBufferSize = 256 * 1024

	// StderrExcerptLimit - max bytes of stderr carried in error messages (4 KB)
	StderrExcerptLimit = 4 * 1024
)

// Validation limits
const (
	MinMassNumber = 1
	MaxMassNumber = 300

	// MaxEnergyMeV - upper bound for incident energies
	MaxEnergyMeV = 1000.0

	// SuggestionMaxDistance - edit distance for "did you mean" hints
	SuggestionMaxDistance = 2
)

// Event System
const (
	// EventBusDefaultBuffer - default buffer size for event channels
	EventBusDefaultBuffer = 256

	// EventBusMaxBuffer - maximum buffer size
	EventBusMaxBuffer = 5000
)

// UI Updates
const (
	// ProgressUpdateInterval - interval for spinner/bar refresh (250ms)
	ProgressUpdateInterval = 250 * time.Millisecond
)

// Logging
const (
	// LogMaxSizeMB - rotate the log file after this many megabytes
	LogMaxSizeMB = 10

	// LogMaxBackups - rotated files to keep
	LogMaxBackups = 5

	// LogMaxAgeDays - days to keep rotated files
	LogMaxAgeDays = 30

	// LogTimeFormat - console timestamp format
	LogTimeFormat = "15:04:05"
)

// HTTP Client Configuration (exports only)
const (
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPExpectContinueTimeout = 1 * time.Second

	// HTTPRetryMax - retries for export requests
	HTTPRetryMax = 5

	HTTPRetryWaitMin = 1 * time.Second
	HTTPRetryWaitMax = 30 * time.Second

	// DefaultProxyPort - used when a proxy host is set without a port
	DefaultProxyPort = 8080

	// ExportTimeout - overall limit for uploading one archive
	ExportTimeout = 30 * time.Minute
)
