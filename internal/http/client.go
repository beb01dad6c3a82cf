package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/http2"

	"github.com/talysviz/talysrun/internal/config"
	"github.com/talysviz/talysrun/internal/constants"
	"github.com/talysviz/talysrun/internal/logging"
)

// retryLogger adapts the application logger to retryablehttp.LeveledLogger.
type retryLogger struct {
	logger *logging.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

// NewTransferClient returns the client used for archive uploads: the proxy
// client from ConfigureHTTPClient, tuned for large bodies and wrapped with
// retryablehttp. It has no overall timeout; callers bound each upload with
// a context.
//
// HTTP/2 is disabled behind a proxy unless FORCE_HTTP2=true, and can be
// disabled everywhere with DISABLE_HTTP2=true.
func NewTransferClient(cfg config.ProxyConfig, logger *logging.Logger) (*nethttp.Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	base, err := ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	if tr, ok := base.Transport.(*nethttp.Transport); ok {
		tr.DisableCompression = true // archives are already gzipped
		tr.ForceAttemptHTTP2 = true
		_ = http2.ConfigureTransport(tr)

		if os.Getenv("DISABLE_HTTP2") == "true" || (proxyActive(cfg) && os.Getenv("FORCE_HTTP2") != "true") {
			tr.ForceAttemptHTTP2 = false
			tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
		}
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = constants.HTTPRetryMax
	retryClient.RetryWaitMin = constants.HTTPRetryWaitMin
	retryClient.RetryWaitMax = constants.HTTPRetryWaitMax
	retryClient.Logger = retryLogger{logger: logger}

	return retryClient.StandardClient(), nil
}

func proxyActive(cfg config.ProxyConfig) bool {
	switch strings.ToLower(cfg.Mode) {
	case ProxyModeNone, "":
		return false
	case ProxyModeSystem:
		return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
			os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
	default:
		return true
	}
}
