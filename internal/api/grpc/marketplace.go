package grpc

import (
	"context"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const marketplaceServiceName = "skillbridge.v1.MarketplaceService"

// MarketplaceServer is the RPC surface of the marketplace. Requests and
// responses are google.protobuf.Struct documents using the HTTP API's JSON
// field names.
type MarketplaceServer interface {
	ListOpportunities(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOpportunity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateOpportunity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CloseOpportunity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReopenOpportunity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SubmitApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DecideApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WithdrawApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(MarketplaceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	fullMethod := "/" + marketplaceServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MarketplaceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MarketplaceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// MarketplaceServiceDesc describes skillbridge.v1.MarketplaceService.
var MarketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: marketplaceServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListOpportunities", Handler: unaryHandler("ListOpportunities", MarketplaceServer.ListOpportunities)},
		{MethodName: "GetOpportunity", Handler: unaryHandler("GetOpportunity", MarketplaceServer.GetOpportunity)},
		{MethodName: "CreateOpportunity", Handler: unaryHandler("CreateOpportunity", MarketplaceServer.CreateOpportunity)},
		{MethodName: "CloseOpportunity", Handler: unaryHandler("CloseOpportunity", MarketplaceServer.CloseOpportunity)},
		{MethodName: "ReopenOpportunity", Handler: unaryHandler("ReopenOpportunity", MarketplaceServer.ReopenOpportunity)},
		{MethodName: "SubmitApplication", Handler: unaryHandler("SubmitApplication", MarketplaceServer.SubmitApplication)},
		{MethodName: "DecideApplication", Handler: unaryHandler("DecideApplication", MarketplaceServer.DecideApplication)},
		{MethodName: "WithdrawApplication", Handler: unaryHandler("WithdrawApplication", MarketplaceServer.WithdrawApplication)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "skillbridge/v1/marketplace.proto",
}

func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&MarketplaceServiceDesc, srv)
}

type MarketplaceHandler struct {
	oppSvc service.OpportunityService
	appSvc service.ApplicationService
}

func NewMarketplaceHandler(oppSvc service.OpportunityService, appSvc service.ApplicationService) *MarketplaceHandler {
	return &MarketplaceHandler{oppSvc: oppSvc, appSvc: appSvc}
}

func opportunityResponse(o *domain.Opportunity, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"opportunity": o})
}

func applicationResponse(a *domain.Application, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"application": a})
}

func (h *MarketplaceHandler) ListOpportunities(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	// Anonymous browsing is allowed; the actor only feeds use_profile_skills.
	opps, err := h.oppSvc.ListOpportunities(ctx, actorOrNil(ctx), MapFilters(req))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]any{"opportunities": opps})
}

func (h *MarketplaceHandler) GetOpportunity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requiredField(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	return opportunityResponse(h.oppSvc.GetOpportunity(ctx, id))
}

func (h *MarketplaceHandler) CreateOpportunity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	var draft domain.OpportunityDraft
	if err := fromStruct(req, &draft); err != nil {
		return nil, toStatus(err)
	}
	return opportunityResponse(h.oppSvc.CreateOpportunity(ctx, actor, draft))
}

func (h *MarketplaceHandler) CloseOpportunity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredField(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	return opportunityResponse(h.oppSvc.CloseOpportunity(ctx, actor, id))
}

func (h *MarketplaceHandler) ReopenOpportunity(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	id, err := requiredField(req, "id")
	if err != nil {
		return nil, toStatus(err)
	}
	return opportunityResponse(h.oppSvc.ReopenOpportunity(ctx, actor, id))
}

func (h *MarketplaceHandler) SubmitApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	oppID, err := requiredField(req, "opportunity_id")
	if err != nil {
		return nil, toStatus(err)
	}
	var message *string
	if v, ok := req.GetFields()["message"]; ok {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			message = &s.StringValue
		}
	}
	return applicationResponse(h.appSvc.SubmitApplication(ctx, actor, oppID, message, idempotencyKey(ctx)))
}

func (h *MarketplaceHandler) DecideApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := requiredField(req, "application_id")
	if err != nil {
		return nil, toStatus(err)
	}
	decision := domain.Decision(stringField(req, "decision"))
	return applicationResponse(h.appSvc.DecideApplication(ctx, actor, appID, decision, idempotencyKey(ctx)))
}

func (h *MarketplaceHandler) WithdrawApplication(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := GetActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	appID, err := requiredField(req, "application_id")
	if err != nil {
		return nil, toStatus(err)
	}
	return applicationResponse(h.appSvc.WithdrawApplication(ctx, actor, appID, idempotencyKey(ctx)))
}
