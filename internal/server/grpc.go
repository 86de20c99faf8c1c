package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/lyrics-extractor/internal/common"
	"github.com/joseph-ayodele/lyrics-extractor/internal/export"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ExtractionServiceName is the fully qualified gRPC service name.
const ExtractionServiceName = "lyrics.v1.ExtractionService"

// ExtractionServer is the gRPC surface. Messages are well-known types so
// clients need no generated stubs.
type ExtractionServer interface {
	ExtractText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Transliterate(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	ParseText(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GenerateCSV(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
}

// RegisterExtractionServer registers srv on s.
func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&extractionServiceDesc, srv)
}

var extractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractText", Handler: unaryHandler("ExtractText", func() *structpb.Struct { return new(structpb.Struct) }, ExtractionServer.ExtractText)},
		{MethodName: "Transliterate", Handler: unaryHandler("Transliterate", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }, ExtractionServer.Transliterate)},
		{MethodName: "ParseText", Handler: unaryHandler("ParseText", func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }, ExtractionServer.ParseText)},
		{MethodName: "GenerateCSV", Handler: unaryHandler("GenerateCSV", func() *structpb.Struct { return new(structpb.Struct) }, ExtractionServer.GenerateCSV)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lyrics/v1/extraction.proto",
}

func unaryHandler[Req, Resp any](method string, newReq func() Req, call func(ExtractionServer, context.Context, Req) (Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ExtractionServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ExtractionServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCServer adapts Service to ExtractionServer.
type GRPCServer struct {
	svc    *Service
	logger *slog.Logger
}

func NewGRPCServer(svc *Service, logger *slog.Logger) *GRPCServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCServer{svc: svc, logger: logger}
}

func (g *GRPCServer) ExtractText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	filename := fields["filename"].GetStringValue()
	content, err := base64.StdEncoding.DecodeString(fields["content"].GetStringValue())
	if err != nil {
		return nil, common.InvalidArgumentError("content must be base64")
	}
	res, err := g.svc.ExtractText(ctx, filename, content)
	if err != nil {
		g.logger.Warn("grpc.extract.failed", "filename", filename, "error", err)
		return nil, common.ToStatus(err)
	}
	warnings := make([]any, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w)
	}
	out, err := structpb.NewStruct(map[string]any{
		"extracted_text": res.Text,
		"job_id":         res.JobID.String(),
		"format":         res.Format,
		"method":         res.Method,
		"label":          res.Label,
		"score":          res.Score,
		"pages":          res.Pages,
		"warnings":       warnings,
	})
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

func (g *GRPCServer) Transliterate(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	out, err := g.svc.Transliterate(ctx, req.GetValue())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return wrapperspb.String(out), nil
}

func (g *GRPCServer) ParseText(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	out, _, err := g.svc.ParseText(ctx, req.GetValue())
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return wrapperspb.String(out), nil
}

func (g *GRPCServer) GenerateCSV(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	fields := req.GetFields()
	var rows []export.LyricRow
	for i, v := range fields["lyrics"].GetListValue().GetValues() {
		row := v.GetStructValue()
		if row == nil {
			return nil, common.InvalidArgumentErrorf("lyrics[%d] must be an object", i)
		}
		rf := row.GetFields()
		rows = append(rows, export.LyricRow{
			Hindi:           rf["hindi"].GetStringValue(),
			Transliteration: rf["transliteration"].GetStringValue(),
			Translation:     rf["translation"].GetStringValue(),
		})
	}
	out, err := g.svc.GenerateCSV(ctx, fields["title"].GetStringValue(), rows)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return wrapperspb.String(out), nil
}

// LoggingInterceptor attaches a request ID and logs each unary call.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, rid := common.EnsureRequestID(ctx)
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{"method", info.FullMethod, "request_id", rid, "duration_ms", time.Since(start).Milliseconds()}
		if err != nil {
			logger.Warn("grpc.request.failed", append(attrs, "error", fmt.Sprint(err))...)
		} else {
			logger.Info("grpc.request", attrs...)
		}
		return resp, err
	}
}
