package api

import (
	"context"
	"strings"
	"time"

	"salonhub/internal/domain"
	"salonhub/internal/models"
	"salonhub/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	availabilityServiceName = "salonhub.availability.v1.AvailabilityService"
	getAvailabilityMethod   = "/" + availabilityServiceName + "/GetAvailability"
)

type GetAvailabilityRequest struct {
	SalonID   string `json:"salonId"`
	StaffID   string `json:"staffId"`
	ServiceID string `json:"serviceId"`
	Date      string `json:"date"`
}

// AvailabilityServer is the handler type behind availabilityServiceDesc.
type AvailabilityServer interface {
	GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*AvailabilityResponse, error)
}

var availabilityServiceDesc = grpc.ServiceDesc{
	ServiceName: availabilityServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAvailability", Handler: getAvailabilityHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "salonhub/availability/v1",
}

func getAvailabilityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAvailabilityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).GetAvailability(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getAvailabilityMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).GetAvailability(ctx, req.(*GetAvailabilityRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AvailabilityClient calls the availability service using the JSON codec.
type AvailabilityClient struct {
	cc grpc.ClientConnInterface
}

func NewAvailabilityClient(cc grpc.ClientConnInterface) *AvailabilityClient {
	return &AvailabilityClient{cc: cc}
}

func (c *AvailabilityClient) GetAvailability(ctx context.Context, in *GetAvailabilityRequest, opts ...grpc.CallOption) (*AvailabilityResponse, error) {
	out := new(AvailabilityResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, getAvailabilityMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type availabilityGRPC struct {
	svc domain.AvailabilityService
}

func (s *availabilityGRPC) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*AvailabilityResponse, error) {
	q, msg := parseAvailabilityQuery(req.SalonID, req.StaffID, req.ServiceID, req.Date)
	if msg != "" {
		return nil, status.Error(codes.InvalidArgument, msg)
	}

	res, err := s.svc.GetAvailability(ctx, q)
	if err != nil {
		return nil, grpcError(err)
	}
	return newAvailabilityResponse(res), nil
}

// parseAvailabilityQuery validates raw identifiers and a YYYY-MM-DD date; a
// non-empty message describes the first problem found.
func parseAvailabilityQuery(salonID, staffID, serviceID, date string) (domain.AvailabilityQuery, string) {
	q := domain.AvailabilityQuery{
		SalonID:   strings.TrimSpace(salonID),
		StaffID:   strings.TrimSpace(staffID),
		ServiceID: strings.TrimSpace(serviceID),
	}
	if q.SalonID == "" || q.StaffID == "" || q.ServiceID == "" {
		return q, "salonId, staffId and serviceId are required"
	}

	date = strings.TrimSpace(date)
	if date == "" {
		return q, "date is required"
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return q, "invalid date format; expected YYYY-MM-DD"
	}
	q.Date = d
	return q, ""
}

func grpcError(err error) error {
	switch {
	case isInvalidArgument(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case service.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, "failed to compute availability")
	}
}
