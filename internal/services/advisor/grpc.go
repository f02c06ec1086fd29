package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/LeonardoBeccarini/plantcare/internal/logging"
)

// The Advisor gRPC service exchanges google.protobuf.Struct messages whose
// fields mirror the JSON bodies of the HTTP API.
const (
	AdvisorServiceName = "plantcare.v1.Advisor"
	calculateMethod    = "/" + AdvisorServiceName + "/Calculate"
	optionsMethod      = "/" + AdvisorServiceName + "/Options"

	transportGRPC = "grpc"
	errorDomain   = "plantcare.v1"
	requestIDKey  = "x-request-id"
)

type AdvisorServer interface {
	Calculate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Options(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterAdvisorServer(s grpc.ServiceRegistrar, srv AdvisorServer) {
	s.RegisterService(&advisorServiceDesc, srv)
}

var advisorServiceDesc = grpc.ServiceDesc{
	ServiceName: AdvisorServiceName,
	HandlerType: (*AdvisorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Calculate", Handler: unaryHandler(calculateMethod, AdvisorServer.Calculate)},
		{MethodName: "Options", Handler: unaryHandler(optionsMethod, AdvisorServer.Options)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "plantcare/v1/advisor.proto",
}

func unaryHandler(method string, call func(AdvisorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AdvisorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(AdvisorServer), ctx, req.(*structpb.Struct))
		})
	}
}

type grpcServer struct {
	svc *Service
}

// NewGRPCServer returns a server with the Advisor service and the standard
// health service registered.
func NewGRPCServer(svc *Service, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(unaryRequestID, unaryLogging(logging.With("grpc")))}, opts...)
	s := grpc.NewServer(opts...)
	RegisterAdvisorServer(s, &grpcServer{svc: svc})

	hs := health.NewServer()
	hs.SetServingStatus(AdvisorServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s
}

func (g *grpcServer) Calculate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	start := time.Now()
	var in Input
	if err := fromStruct(req, &in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}
	rep, err := g.svc.Calculate(ctx, in)
	g.svc.observe(ctx, transportGRPC, in, start, rep, err)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(rep)
}

func (g *grpcServer) Options(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	opts, err := g.svc.Options(ctx)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(opts)
}

func grpcCode(code string) codes.Code {
	switch code {
	case CodeInvalidInput:
		return codes.InvalidArgument
	case CodeUnknownSelection:
		return codes.NotFound
	case CodeDataUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// grpcError attaches the error code as an ErrorInfo reason.
func grpcError(err error) error {
	code := ErrorCode(err)
	msg := err.Error()
	if code == CodeInternal {
		msg = "internal error"
	}
	st := status.New(grpcCode(code), msg)
	info := &errdetails.ErrorInfo{Reason: code, Domain: errorDomain}
	if details := ErrorDetails(err); details != nil {
		info.Metadata = make(map[string]string, len(details))
		for k, v := range details {
			if s, ok := v.(string); ok {
				info.Metadata[k] = s
			} else if b, err := json.Marshal(v); err == nil {
				info.Metadata[k] = string(b)
			}
		}
	}
	if withInfo, derr := st.WithDetails(info); derr == nil {
		st = withInfo
	}
	return st.Err()
}

// RemoteErrorCode recovers the advisor error code from a gRPC error, or ""
// when the error did not come from the service.
func RemoteErrorCode(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == errorDomain {
			return info.Reason
		}
	}
	return ""
}

func unaryRequestID(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 {
			id = strings.TrimSpace(v[0])
		}
	}
	if id == "" || len(id) > 128 {
		id = logging.NewRequestID()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, id))
	return handler(logging.ContextWithRequestID(ctx, id), req)
}

func unaryLogging(base zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log := logging.Ctx(ctx, base)
		log.Debug().
			Str("method", info.FullMethod).
			Stringer("code", status.Code(err)).
			Dur("took", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}

// toStruct converts a JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// fromStruct decodes s into v, rejecting unknown fields.
func fromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// AdvisorClient calls a remote advisor.
type AdvisorClient struct {
	cc grpc.ClientConnInterface
}

func NewAdvisorClient(cc grpc.ClientConnInterface) *AdvisorClient {
	return &AdvisorClient{cc: cc}
}

// Dial opens a plaintext connection to addr.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial advisor %s: %w", addr, err)
	}
	return conn, nil
}

func (c *AdvisorClient) Calculate(ctx context.Context, in Input, opts ...grpc.CallOption) (*Report, error) {
	req, err := toStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, calculateMethod, req, out, opts...); err != nil {
		return nil, err
	}
	var rep Report
	if err := fromStruct(out, &rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

func (c *AdvisorClient) Options(ctx context.Context, opts ...grpc.CallOption) (*Options, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, optionsMethod, &structpb.Struct{}, out, opts...); err != nil {
		return nil, err
	}
	var o Options
	if err := fromStruct(out, &o); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return &o, nil
}
