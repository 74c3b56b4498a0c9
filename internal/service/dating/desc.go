package dating

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "matchbot.dating.v1.DatingService"

// DatingServer is the server API for the dating service.
type DatingServer interface {
	RegisterProfile(context.Context, *RegisterProfileRequest) (*RegisterProfileResponse, error)
	SetSearchPreference(context.Context, *SetSearchPreferenceRequest) (*SetSearchPreferenceResponse, error)
	NextCandidate(context.Context, *NextCandidateRequest) (*NextCandidateResponse, error)
	RecordDecision(context.Context, *RecordDecisionRequest) (*RecordDecisionResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	GetThreadHistory(context.Context, *GetThreadHistoryRequest) (*GetThreadHistoryResponse, error)
	Block(context.Context, *BlockRequest) (*BlockResponse, error)
	Unblock(context.Context, *UnblockRequest) (*UnblockResponse, error)
	IsBlocked(context.Context, *IsBlockedRequest) (*IsBlockedResponse, error)
	SubmitReport(context.Context, *SubmitReportRequest) (*SubmitReportResponse, error)
	ListMatches(context.Context, *ListMatchesRequest) (*ListMatchesResponse, error)
	ListLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error)
	CountLikedYou(context.Context, *CountLikedYouRequest) (*CountLikedYouResponse, error)
}

// fullMethod returns the "/service/method" path used on the wire.
func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary builds the method descriptor for one request/response call.
func unary[Req, Resp any](method string, call func(DatingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DatingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DatingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for the dating service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DatingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RegisterProfile", DatingServer.RegisterProfile),
		unary("SetSearchPreference", DatingServer.SetSearchPreference),
		unary("NextCandidate", DatingServer.NextCandidate),
		unary("RecordDecision", DatingServer.RecordDecision),
		unary("SendMessage", DatingServer.SendMessage),
		unary("GetThreadHistory", DatingServer.GetThreadHistory),
		unary("Block", DatingServer.Block),
		unary("Unblock", DatingServer.Unblock),
		unary("IsBlocked", DatingServer.IsBlocked),
		unary("SubmitReport", DatingServer.SubmitReport),
		unary("ListMatches", DatingServer.ListMatches),
		unary("ListLikedYou", DatingServer.ListLikedYou),
		unary("CountLikedYou", DatingServer.CountLikedYou),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "matchbot/dating/v1",
}

// RegisterDatingServer attaches srv to the gRPC server.
func RegisterDatingServer(s grpc.ServiceRegistrar, srv DatingServer) {
	s.RegisterService(&ServiceDesc, srv)
}
