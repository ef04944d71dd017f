package chain

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"strings"
	"time"

	errorsmod "cosmossdk.io/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/saiset-co/saiCosmosTx/internal/txerrors"
)

// dial opens a gRPC connection and waits until it is usable or the timeout passes.
func dial(ctx context.Context, endpoint string, timeout time.Duration) (*grpc.ClientConn, error) {
	if endpoint == "" {
		return nil, errorsmod.Wrap(txerrors.ErrConnection, "empty endpoint")
	}

	// Endpoints on 443 are TLS
	transportCredentials := grpc.WithTransportCredentials(insecure.NewCredentials())
	if strings.HasSuffix(endpoint, "443") {
		creds := credentials.NewTLS(&tls.Config{
			RootCAs:    systemCertPool(),
			MinVersion: tls.VersionTLS12,
		})
		transportCredentials = grpc.WithTransportCredentials(creds)
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, endpoint, transportCredentials, grpc.WithBlock())
	if err != nil {
		return nil, errorsmod.Wrapf(txerrors.ErrConnection, "%s: %s", endpoint, err)
	}

	return conn, nil
}

func systemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return x509.NewCertPool()
	}
	return pool
}
