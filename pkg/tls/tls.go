package tls

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/spiffe/go-spiffe/v2/spiffetls/tlsconfig"
    "github.com/spiffe/go-spiffe/v2/workloadapi"
    "go.uber.org/zap"
)

type TLSConfig struct {
    Enabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
    SocketPath string `envconfig:"SPIRE_SOCKET_PATH" default:"unix:///run/spire/sockets/agent.sock"`
}

var x509Source *workloadapi.X509Source

// LoadTLSConfig는 SPIRE Workload API로 mTLS 서버 설정을 만든다.
// 매장 내부망 배포에서는 보통 비활성.
func LoadTLSConfig(cfg *TLSConfig, logger *zap.Logger) (*tls.Config, error) {
    if !cfg.Enabled {
        logger.Info("TLS is disabled")
        return nil, nil
    }

    ctx := context.Background()

    source, err := workloadapi.NewX509Source(
        ctx,
        workloadapi.WithClientOptions(
            workloadapi.WithAddr(cfg.SocketPath),
        ),
    )
    if err != nil {
        return nil, fmt.Errorf("unable to create X509Source: %w", err)
    }

    x509Source = source

    tlsConfig := tlsconfig.MTLSServerConfig(source, source, tlsconfig.AuthorizeAny())
    tlsConfig.MinVersion = tls.VersionTLS12

    logger.Info("SPIRE TLS configuration loaded",
        zap.String("socket_path", cfg.SocketPath),
        zap.Bool("mtls_enabled", true))

    return tlsConfig, nil
}

// WatchCertificates는 SVID 상태를 주기적으로 로깅한다.
// 갱신 자체는 SPIRE가 알아서 한다.
func WatchCertificates(logger *zap.Logger) {
    if x509Source == nil {
        logger.Error("X509Source is not initialized")
        return
    }

    ticker := time.NewTicker(30 * time.Second)
    defer ticker.Stop()

    for range ticker.C {
        svid, err := x509Source.GetX509SVID()
        if err != nil {
            logger.Error("Failed to get X509 SVID", zap.Error(err))
            continue
        }

        logger.Info("Certificate status",
            zap.String("spiffe_id", svid.ID.String()),
            zap.Time("expiry", svid.Certificates[0].NotAfter),
            zap.Duration("ttl", time.Until(svid.Certificates[0].NotAfter)))
    }
}

func Cleanup() {
    if x509Source != nil {
        x509Source.Close()
    }
}
