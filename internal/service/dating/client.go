package dating

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/matchbot/internal/server"
)

// Client calls the dating service over the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(server.CodecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RegisterProfile(ctx context.Context, req *RegisterProfileRequest, opts ...grpc.CallOption) (*RegisterProfileResponse, error) {
	return invoke[RegisterProfileResponse](ctx, c.cc, "RegisterProfile", req, opts...)
}

func (c *Client) SetSearchPreference(ctx context.Context, req *SetSearchPreferenceRequest, opts ...grpc.CallOption) (*SetSearchPreferenceResponse, error) {
	return invoke[SetSearchPreferenceResponse](ctx, c.cc, "SetSearchPreference", req, opts...)
}

func (c *Client) NextCandidate(ctx context.Context, req *NextCandidateRequest, opts ...grpc.CallOption) (*NextCandidateResponse, error) {
	return invoke[NextCandidateResponse](ctx, c.cc, "NextCandidate", req, opts...)
}

func (c *Client) RecordDecision(ctx context.Context, req *RecordDecisionRequest, opts ...grpc.CallOption) (*RecordDecisionResponse, error) {
	return invoke[RecordDecisionResponse](ctx, c.cc, "RecordDecision", req, opts...)
}

func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, "SendMessage", req, opts...)
}

func (c *Client) GetThreadHistory(ctx context.Context, req *GetThreadHistoryRequest, opts ...grpc.CallOption) (*GetThreadHistoryResponse, error) {
	return invoke[GetThreadHistoryResponse](ctx, c.cc, "GetThreadHistory", req, opts...)
}

func (c *Client) Block(ctx context.Context, req *BlockRequest, opts ...grpc.CallOption) (*BlockResponse, error) {
	return invoke[BlockResponse](ctx, c.cc, "Block", req, opts...)
}

func (c *Client) Unblock(ctx context.Context, req *UnblockRequest, opts ...grpc.CallOption) (*UnblockResponse, error) {
	return invoke[UnblockResponse](ctx, c.cc, "Unblock", req, opts...)
}

func (c *Client) IsBlocked(ctx context.Context, req *IsBlockedRequest, opts ...grpc.CallOption) (*IsBlockedResponse, error) {
	return invoke[IsBlockedResponse](ctx, c.cc, "IsBlocked", req, opts...)
}

func (c *Client) SubmitReport(ctx context.Context, req *SubmitReportRequest, opts ...grpc.CallOption) (*SubmitReportResponse, error) {
	return invoke[SubmitReportResponse](ctx, c.cc, "SubmitReport", req, opts...)
}

func (c *Client) ListMatches(ctx context.Context, req *ListMatchesRequest, opts ...grpc.CallOption) (*ListMatchesResponse, error) {
	return invoke[ListMatchesResponse](ctx, c.cc, "ListMatches", req, opts...)
}

func (c *Client) ListLikedYou(ctx context.Context, req *ListLikedYouRequest, opts ...grpc.CallOption) (*ListLikedYouResponse, error) {
	return invoke[ListLikedYouResponse](ctx, c.cc, "ListLikedYou", req, opts...)
}

func (c *Client) CountLikedYou(ctx context.Context, req *CountLikedYouRequest, opts ...grpc.CallOption) (*CountLikedYouResponse, error) {
	return invoke[CountLikedYouResponse](ctx, c.cc, "CountLikedYou", req, opts...)
}
