package probe

import (
	"context"

	"dev.rubentxu.mr-harness/internal/core/domain"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

// GRPCProber comprueba que el endpoint de un worker acepta una conexión gRPC.
// No invoca ningún servicio: basta con que el canal llegue a Ready.
type GRPCProber struct{}

func NewGRPCProber() *GRPCProber {
	return &GRPCProber{}
}

func (p *GRPCProber) Probe(ctx context.Context, endpoint domain.WorkerEndpoint) error {
	conn, err := grpc.NewClient(endpoint.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return errors.Wrapf(err, "failed to create client for %s", endpoint)
	}
	defer conn.Close()

	conn.Connect()
	for {
		state := conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if !conn.WaitForStateChange(ctx, state) {
			return errors.Wrapf(ctx.Err(), "endpoint %s not ready (last state %s)", endpoint, state)
		}
	}
}
