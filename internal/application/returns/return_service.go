package returns

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/citadelbuy/returns/internal/domain/inventory"
	"github.com/citadelbuy/returns/internal/domain/returns"
	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhotoStorage issues presigned URLs for inspection photos.
// Implemented by the object storage adapters in the infrastructure layer.
type PhotoStorage interface {
	// GenerateUploadURL returns a presigned PUT URL and its expiry
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL returns a presigned GET URL and its expiry
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// allowedPhotoContentTypes maps accepted image types to their file extension
var allowedPhotoContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// ReturnSettings holds the operational defaults of the return workflow
type ReturnSettings struct {
	DefaultCarrier      string
	DefaultServiceLevel string
	// RMAMaxAttempts bounds RMA number generation retries on collision
	RMAMaxAttempts      int
	PhotoUploadExpiry   time.Duration
	PhotoDownloadExpiry time.Duration
}

// DefaultReturnSettings returns the defaults used when nothing is configured
func DefaultReturnSettings() ReturnSettings {
	return ReturnSettings{
		DefaultCarrier:      "USPS",
		DefaultServiceLevel: "ground",
		RMAMaxAttempts:      5,
		PhotoUploadExpiry:   15 * time.Minute,
		PhotoDownloadExpiry: time.Hour,
	}
}

// ReturnService drives the return request lifecycle
type ReturnService struct {
	eventDispatcher
	returnRepo    returns.ReturnRequestRepository
	orderReader   returns.OrderReader
	warehouseRepo inventory.WarehouseRepository
	shipping      returns.ShippingProvider
	photos        PhotoStorage
	rma           *returns.RMAGenerator
	settings      ReturnSettings
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	returnRepo returns.ReturnRequestRepository,
	orderReader returns.OrderReader,
	warehouseRepo inventory.WarehouseRepository,
	shipping returns.ShippingProvider,
	photos PhotoStorage,
	settings ReturnSettings,
	logger *zap.Logger,
) *ReturnService {
	defaults := DefaultReturnSettings()
	if settings.DefaultCarrier == "" {
		settings.DefaultCarrier = defaults.DefaultCarrier
	}
	if settings.DefaultServiceLevel == "" {
		settings.DefaultServiceLevel = defaults.DefaultServiceLevel
	}
	if settings.RMAMaxAttempts <= 0 {
		settings.RMAMaxAttempts = defaults.RMAMaxAttempts
	}
	if settings.PhotoUploadExpiry <= 0 {
		settings.PhotoUploadExpiry = defaults.PhotoUploadExpiry
	}
	if settings.PhotoDownloadExpiry <= 0 {
		settings.PhotoDownloadExpiry = defaults.PhotoDownloadExpiry
	}
	return &ReturnService{
		eventDispatcher: newEventDispatcher(logger),
		returnRepo:      returnRepo,
		orderReader:     orderReader,
		warehouseRepo:   warehouseRepo,
		shipping:        shipping,
		photos:          photos,
		rma:             returns.NewRMAGenerator(),
		settings:        settings,
	}
}

// SetRMAGenerator replaces the RMA number generator
func (s *ReturnService) SetRMAGenerator(g *returns.RMAGenerator) {
	s.rma = g
}

// Create opens a return against one of the caller's orders
func (s *ReturnService) Create(ctx context.Context, actor Actor, req CreateReturnRequest) (*ReturnResponse, error) {
	order, err := s.orderReader.FindOrder(ctx, req.OrderID)
	if err != nil {
		return nil, translateNotFound(err, "Order")
	}

	items := make([]returns.RequestedItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = returns.RequestedItem{
			OrderItemID: item.OrderItemID,
			Quantity:    item.Quantity,
			Reason:      item.Reason,
			Condition:   item.Condition,
			Notes:       item.Notes,
		}
	}

	for attempt := 1; attempt <= s.settings.RMAMaxAttempts; attempt++ {
		rmaNumber, err := s.nextRMANumber(ctx)
		if err != nil {
			return nil, err
		}

		r, err := returns.NewReturnRequest(rmaNumber, order, actor.UserID, req.ReturnType, req.Reason, req.Comments, items)
		if err != nil {
			return nil, err
		}

		if err := s.returnRepo.Save(ctx, r); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				s.logger.Warn("RMA number collision, retrying",
					zap.String("rma_number", rmaNumber),
					zap.Int("attempt", attempt),
				)
				continue
			}
			return nil, err
		}

		s.publish(ctx, r)
		response := ToReturnResponse(r)
		return &response, nil
	}

	return nil, shared.NewDomainError(shared.CodeConcurrencyConflict, "Could not allocate a unique RMA number")
}

// nextRMANumber draws RMA numbers until one is unused
func (s *ReturnService) nextRMANumber(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.settings.RMAMaxAttempts; attempt++ {
		candidate, err := s.rma.Next()
		if err != nil {
			return "", fmt.Errorf("failed to generate RMA number: %w", err)
		}
		exists, err := s.returnRepo.ExistsByRMANumber(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", shared.NewDomainError(shared.CodeConcurrencyConflict, "Could not allocate a unique RMA number")
}

// GetByID returns a return. Customers only see their own returns.
func (s *ReturnService) GetByID(ctx context.Context, actor Actor, id uuid.UUID) (*ReturnResponse, error) {
	r, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(r)
	response.PhotoURLs = s.photoURLs(ctx, r.InspectionPhotos)
	return &response, nil
}

// GetByRMA returns a return by its RMA number
func (s *ReturnService) GetByRMA(ctx context.Context, actor Actor, rmaNumber string) (*ReturnResponse, error) {
	r, err := s.returnRepo.FindByRMANumber(ctx, strings.ToUpper(strings.TrimSpace(rmaNumber)))
	if err != nil {
		return nil, translateNotFound(err, "Return request")
	}
	if !actor.IsAdmin() && !r.IsOwnedBy(actor.UserID) {
		return nil, shared.NewNotFoundError("Return request")
	}
	response := ToReturnResponse(r)
	response.PhotoURLs = s.photoURLs(ctx, r.InspectionPhotos)
	return &response, nil
}

// List returns a page of returns. Customers are scoped to their own returns
// regardless of the requested user filter.
func (s *ReturnService) List(ctx context.Context, actor Actor, filter ReturnListFilter) ([]ReturnListItemResponse, int64, error) {
	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	if filter.OrderBy == "" {
		filter.OrderBy = "requested_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]any),
	}
	if !actor.IsAdmin() {
		domainFilter.Filters["user_id"] = actor.UserID
	} else if filter.UserID != nil {
		domainFilter.Filters["user_id"] = *filter.UserID
	}
	if filter.OrderID != nil {
		domainFilter.Filters["order_id"] = *filter.OrderID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.ReturnType != nil {
		domainFilter.Filters["return_type"] = string(*filter.ReturnType)
	}
	if filter.Reason != nil {
		domainFilter.Filters["reason"] = string(*filter.Reason)
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	list, err := s.returnRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.returnRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToReturnListItemResponses(list), total, nil
}

// GetAnalytics aggregates returns over an optional date range.
// Customers get analytics over their own returns only.
func (s *ReturnService) GetAnalytics(ctx context.Context, actor Actor, filter AnalyticsFilter) (*AnalyticsResponse, error) {
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, shared.NewBadRequestError("end_date must not be before start_date")
	}
	query := returns.AnalyticsQuery{From: filter.StartDate, To: filter.EndDate}
	if !actor.IsAdmin() {
		userID := actor.UserID
		query.UserID = &userID
	}

	analytics, err := s.returnRepo.Analytics(ctx, query)
	if err != nil {
		return nil, err
	}
	response := ToAnalyticsResponse(analytics)
	return &response, nil
}

// Review moves a fresh request under admin review
func (s *ReturnService) Review(ctx context.Context, actor Actor, id uuid.UUID) (*ReturnResponse, error) {
	return s.transition(ctx, actor, id, func(r *returns.ReturnRequest) error {
		return r.MarkPendingApproval(actor.UserID)
	})
}

// Approve approves or rejects a return awaiting a decision
func (s *ReturnService) Approve(ctx context.Context, actor Actor, id uuid.UUID, req ApproveReturnRequest) (*ReturnResponse, error) {
	if req.Approved == nil {
		return nil, shared.NewBadRequestError("approved is required")
	}
	return s.transition(ctx, actor, id, func(r *returns.ReturnRequest) error {
		if !*req.Approved {
			return r.Reject(actor.UserID, req.RejectedReason)
		}
		return r.Approve(actor.UserID, returns.ApprovalTerms{
			RestockingFee:         req.RestockingFee,
			IncludeShippingRefund: req.IncludeShippingRefund,
			ShippingRefund:        req.ShippingRefund,
		})
	})
}

// GenerateLabel requests an inbound shipping label from the shipping
// provider. On any failure the return stays APPROVED.
func (s *ReturnService) GenerateLabel(ctx context.Context, actor Actor, id uuid.UUID, req GenerateLabelRequest) (*ReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "return", "generate_label")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrReturnID, id.String(), telemetry.SpanAttrCarrier, req.Carrier)

	resp, err := s.generateLabel(ctx, actor, id, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

func (s *ReturnService) generateLabel(ctx context.Context, actor Actor, id uuid.UUID, req GenerateLabelRequest) (*ReturnResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.EnsureLabelAllowed(); err != nil {
		return nil, err
	}

	warehouse, err := s.warehouseRepo.FindActivePrimary(ctx)
	if err != nil {
		return nil, translateNotFound(err, "Primary warehouse")
	}

	carrier := strings.TrimSpace(req.Carrier)
	if carrier == "" {
		carrier = s.settings.DefaultCarrier
	}
	serviceLevel := strings.TrimSpace(req.ServiceLevel)
	if serviceLevel == "" {
		serviceLevel = s.settings.DefaultServiceLevel
	}

	shipment, err := s.shipping.CreateShipment(ctx, returns.ShipmentRequest{
		Reference:    r.RMANumber,
		Origin:       r.Order.ShippingAddress,
		Destination:  warehouse.ShippingAddress(),
		Carrier:      carrier,
		ServiceLevel: serviceLevel,
	})
	if err != nil {
		s.logger.Error("shipping label creation failed",
			zap.String("return_id", r.ID.String()),
			zap.String("rma_number", r.RMANumber),
			zap.String("carrier", carrier),
			zap.Error(err),
		)
		return nil, shared.NewExternalServiceError("Shipping label creation", err)
	}
	if shipment == nil || shipment.TrackingNumber == "" {
		return nil, shared.NewExternalServiceError("Shipping label creation", errors.New("provider returned no tracking number"))
	}

	labelCarrier := shipment.Carrier
	if labelCarrier == "" {
		labelCarrier = carrier
	}
	if err := r.AttachLabel(actor.UserID, returns.ReturnLabel{
		Carrier:        labelCarrier,
		ServiceLevel:   serviceLevel,
		TrackingNumber: shipment.TrackingNumber,
		LabelURL:       shipment.LabelURL,
		LabelFormat:    shipment.LabelFormat,
	}); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}

	s.publish(ctx, r)
	response := ToReturnResponse(r)
	return &response, nil
}

// MarkReceived records that the package arrived at the warehouse
func (s *ReturnService) MarkReceived(ctx context.Context, actor Actor, id uuid.UUID) (*ReturnResponse, error) {
	return s.transition(ctx, actor, id, func(r *returns.ReturnRequest) error {
		return r.MarkReceived(actor.UserID)
	})
}

// Inspect records the inspection outcome of a received return
func (s *ReturnService) Inspect(ctx context.Context, actor Actor, id uuid.UUID, req InspectReturnRequest) (*ReturnResponse, error) {
	if req.Approved == nil {
		return nil, shared.NewBadRequestError("approved is required")
	}
	return s.transition(ctx, actor, id, func(r *returns.ReturnRequest) error {
		return r.Inspect(actor.UserID, returns.InspectionResult{
			Approved:             *req.Approved,
			Notes:                req.Notes,
			Photos:               req.Photos,
			AdjustedRefundAmount: req.AdjustedRefundAmount,
		})
	})
}

// Cancel withdraws a return on behalf of its requester
func (s *ReturnService) Cancel(ctx context.Context, actor Actor, id uuid.UUID) (*ReturnResponse, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.Cancel(actor.UserID); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}

	s.publish(ctx, r)
	response := ToReturnResponse(r)
	return &response, nil
}

// RequestPhotoUpload returns a presigned URL for uploading one inspection
// photo. The storage key is passed back in InspectReturnRequest.Photos.
func (s *ReturnService) RequestPhotoUpload(ctx context.Context, actor Actor, id uuid.UUID, req PhotoUploadRequest) (*PhotoUploadResponse, error) {
	if s.photos == nil {
		return nil, shared.NewDomainError(shared.CodeExternalServiceFailure, "Photo storage is not configured")
	}
	r, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	ext, ok := allowedPhotoContentTypes[contentType]
	if !ok {
		return nil, shared.NewBadRequestError(fmt.Sprintf("Unsupported photo content type: %s", req.ContentType))
	}
	if strings.ToLower(filepath.Ext(req.FileName)) == ".jpeg" && ext == ".jpg" {
		ext = ".jpeg"
	}
	storageKey := fmt.Sprintf("returns/%s/%s%s", r.RMANumber, uuid.New().String(), ext)

	url, expiresAt, err := s.photos.GenerateUploadURL(ctx, storageKey, contentType, s.settings.PhotoUploadExpiry)
	if err != nil {
		return nil, shared.NewExternalServiceError("Photo upload URL generation", err)
	}
	return &PhotoUploadResponse{
		StorageKey: storageKey,
		UploadURL:  url,
		Method:     "PUT",
		ExpiresAt:  expiresAt,
	}, nil
}

// transition runs an admin state change with load, guard, save and publish
func (s *ReturnService) transition(ctx context.Context, actor Actor, id uuid.UUID, apply func(r *returns.ReturnRequest) error) (*ReturnResponse, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(r); err != nil {
		return nil, err
	}
	if err := s.returnRepo.SaveWithLock(ctx, r); err != nil {
		return nil, err
	}

	s.publish(ctx, r)
	response := ToReturnResponse(r)
	return &response, nil
}

func (s *ReturnService) load(ctx context.Context, id uuid.UUID) (*returns.ReturnRequest, error) {
	r, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err, "Return request")
	}
	return r, nil
}

// loadVisible hides other customers' returns behind NOT_FOUND
func (s *ReturnService) loadVisible(ctx context.Context, actor Actor, id uuid.UUID) (*returns.ReturnRequest, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !r.IsOwnedBy(actor.UserID) {
		return nil, shared.NewNotFoundError("Return request")
	}
	return r, nil
}

// photoURLs presigns download URLs for stored photo keys. Entries that are
// already absolute URLs are passed through.
func (s *ReturnService) photoURLs(ctx context.Context, photos []string) []string {
	if s.photos == nil || len(photos) == 0 {
		return nil
	}
	urls := make([]string, 0, len(photos))
	for _, photo := range photos {
		if strings.Contains(photo, "://") {
			urls = append(urls, photo)
			continue
		}
		url, _, err := s.photos.GenerateDownloadURL(ctx, photo, s.settings.PhotoDownloadExpiry)
		if err != nil {
			s.logger.Warn("failed to presign inspection photo", zap.String("key", photo), zap.Error(err))
			continue
		}
		urls = append(urls, url)
	}
	return urls
}
