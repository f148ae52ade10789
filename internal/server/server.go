package server

import (
	"crypto/tls"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"
)

// config provided to http.Server.ListenAndServeTLS()
type TLSConfig struct {
	config   *tls.Config
	certFile string
	keyFile  string
}

// ServerOption provides optional config for an http.Server passed to ServeFn()
type ServerOption struct {
	listener  net.Listener
	tlsConfig *TLSConfig
}

type Option func(*ServerOption)

// WithTLSConfig serves over TLS with the given config and key pair.
func WithTLSConfig(config *tls.Config, certFilePath string, keyFilePath string) Option {
	return func(so *ServerOption) {
		if config != nil {
			so.tlsConfig = &TLSConfig{
				config:   config,
				certFile: certFilePath,
				keyFile:  keyFilePath,
			}
		}
	}
}

// WithListener serves on the given listener instead of binding srv.Addr.
func WithListener(listener net.Listener) Option {
	return func(so *ServerOption) {
		so.listener = listener
	}
}

// ServeFn takes in an http.Server and additional config and returns a
// callback suitable for errgroup.Go. A server closed via srv.Shutdown or
// srv.Close returns nil.
func ServeFn(srv *http.Server, name string, opts ...Option) func() error {
	options := &ServerOption{}
	for _, o := range opts {
		o(options)
	}
	return func() error {
		if options.listener == nil {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			options.listener = ln
		}
		defer options.listener.Close()

		if options.tlsConfig != nil && options.tlsConfig.config != nil {
			srv.TLSConfig = options.tlsConfig.config
		}

		var err error
		if options.tlsConfig != nil && srv.TLSConfig != nil {
			log.Info().Msgf("Starting packmule server[%s] at %s over TLS", name, srv.Addr)
			err = srv.ServeTLS(options.listener, options.tlsConfig.certFile, options.tlsConfig.keyFile)
		} else {
			log.Info().Msgf("Starting packmule server[%s] at %s", name, srv.Addr)
			err = srv.Serve(options.listener)
		}
		if err != http.ErrServerClosed {
			log.Err(err).Msgf("packmule server[%s] closed abnormally", name)
			return err
		}
		return nil
	}
}
