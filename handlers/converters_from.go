package handlers

import (
	"fmt"
	"math"
	"time"

	"myremoting/domain"
	"myremoting/service"
)

// maxLeaseMs is the longest lease a time.Duration can hold.
const maxLeaseMs = math.MaxInt64 / int64(time.Millisecond)

// publishCommand is a validated PublishRequest.
type publishCommand struct {
	serviceType string
	qualifier   string
	properties  domain.ServiceProperties
	lease       time.Duration
}

// fromPublishRequest converts PublishRequest to a publishCommand.
// Returns service.BadParameterError on validation failure.
func fromPublishRequest(req PublishRequest) (publishCommand, error) {
	if req.ServiceType == "" {
		return publishCommand{}, service.NewBadParameterError("service_type is required", nil)
	}
	if req.Properties[domain.PropertyApplicationInstanceID] == "" {
		return publishCommand{}, service.NewBadParameterError("properties."+domain.PropertyApplicationInstanceID+" is required", nil)
	}
	if req.LeaseMs <= 0 {
		return publishCommand{}, service.NewBadParameterError("lease_ms is required", nil)
	}
	if req.LeaseMs > maxLeaseMs {
		return publishCommand{}, service.NewBadParameterError(fmt.Sprintf("lease_ms must not exceed %d", maxLeaseMs), nil)
	}
	return publishCommand{
		serviceType: req.ServiceType,
		qualifier:   req.Qualifier,
		properties:  domain.ServiceProperties(req.Properties).Clone(),
		lease:       time.Duration(req.LeaseMs) * time.Millisecond,
	}, nil
}
