package mdfanout

import (
	"time"

	"google.golang.org/grpc"

	"jotacomputing/counterbridge/internal/shm"
	"jotacomputing/counterbridge/internal/wire"
)

// pollInterval is the sleep between empty-queue polls of the market-data
// feed, matching the request-drain loop's own idle cadence.
const pollInterval = 100 * time.Microsecond

// Server drains the market-data MWMR queue and fans each update out to
// every attached gRPC stream.
type Server struct {
	feed *shm.Queue[wire.MarketUpdateNew]
}

// NewServer wraps an already-attached market-data queue.
func NewServer(feed *shm.Queue[wire.MarketUpdateNew]) *Server {
	return &Server{feed: feed}
}

// StreamTicks implements the single streaming RPC by hand, since no
// protoc-generated stub exists for it; it is wired into a *grpc.Server
// through ServiceDesc below.
func (s *Server) StreamTicks(req *StreamRequest, stream grpc.ServerStream) error {
	var update wire.MarketUpdateNew
	for {
		select {
		case <-stream.Context().Done():
			return stream.Context().Err()
		default:
		}

		if !s.feed.Dequeue(&update) {
			time.Sleep(pollInterval)
			continue
		}

		tick := FromMarketUpdate(&update)
		if req.Symbol != "" && tick.Symbol != req.Symbol {
			continue
		}
		if err := stream.SendMsg(&tick); err != nil {
			return err
		}
	}
}

func streamTicksHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(StreamRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(*Server).StreamTicks(req, stream)
}

// ServiceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a service with one server-streaming RPC, StreamTicks.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: "counterbridge.mdfanout.MarketDataFanout",
	HandlerType: (*Server)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamTicks",
			Handler:       streamTicksHandler,
			ServerStreams: true,
		},
	},
	Metadata: "counterbridge/mdfanout.proto",
}

// Register attaches the fan-out service to an existing gRPC server.
func Register(gs *grpc.Server, s *Server) {
	gs.RegisterService(&ServiceDesc, s)
}

// NewGRPCServer returns a *grpc.Server forced onto this package's codec,
// so every RPC on it decodes with mdfanout's hand-framed messages
// regardless of what content-subtype a client requests.
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ForceServerCodec(codec{}))
	return grpc.NewServer(opts...)
}
