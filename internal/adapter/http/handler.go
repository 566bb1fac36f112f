package http

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog"

	"github.com/neomorfeo/rentwise/internal/app"
	"github.com/neomorfeo/rentwise/internal/domain"
)

// Services bundles the application services exposed over HTTP.
type Services struct {
	Listings      *app.ListingService
	Bookings      *app.BookingService
	Payments      *app.PaymentService
	Disputes      *app.DisputeService
	Subscriptions *app.SubscriptionService
	Messages      *app.MessageService
	Reviews       *app.ReviewService
}

type handler struct {
	svc    Services
	logger zerolog.Logger
}

// Register adds all marketplace API routes to the Huma API.
func Register(api huma.API, svc Services, logger zerolog.Logger) {
	h := &handler{svc: svc, logger: logger.With().Str("component", "http").Logger()}
	h.registerListings(api)
	h.registerBookings(api)
	h.registerPayments(api)
	h.registerDisputes(api)
	h.registerSubscriptions(api)
	h.registerMessages(api)
	h.registerReviews(api)
}

// fail translates err and logs the ones the caller cannot act on.
func (h *handler) fail(ctx context.Context, err error) error {
	herr := toHumaError(err)
	var se huma.StatusError
	if !errors.As(err, &se) && domain.KindOf(err) == domain.KindInternal {
		h.logger.Error().Ctx(ctx).Err(err).Msg("request failed")
	}
	return herr
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return huma.Error404NotFound(err.Error())
	case domain.KindConflict:
		return huma.Error409Conflict(err.Error())
	case domain.KindForbidden:
		return huma.Error403Forbidden(err.Error())
	case domain.KindBadRequest:
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError("internal server error")
	}
}

// --- Shared bodies ---

// MoneyBody is the wire form of an amount of money.
type MoneyBody struct {
	Amount   string `json:"amount" pattern:"^[0-9]+(\\.[0-9]+)?$" doc:"Decimal amount, e.g. 150000.00"`
	Currency string `json:"currency" minLength:"3" maxLength:"3" doc:"ISO 4217 currency code"`
}

func toMoneyBody(m domain.Money) MoneyBody {
	return MoneyBody{Amount: m.Amount().StringFixed(2), Currency: m.Currency()}
}

func (b MoneyBody) money() (domain.Money, error) {
	return domain.ParseMoney(b.Amount, b.Currency)
}

// IDInput addresses a single entity.
type IDInput struct {
	ID string `path:"id" doc:"Entity ID"`
}

// ReasonBody is the optional body of a transition.
type ReasonBody struct {
	Reason string `json:"reason,omitempty" maxLength:"1000" doc:"Reason shown to the other party"`
}

// ReasonInput carries an optional free-text reason for a transition.
type ReasonInput struct {
	ID   string      `path:"id" doc:"Entity ID"`
	Body *ReasonBody `required:"false"`
}

func (in *ReasonInput) reason() string {
	if in.Body == nil {
		return ""
	}
	return in.Body.Reason
}

// PageInput holds pagination query parameters.
type PageInput struct {
	Limit  int `query:"limit" required:"false" default:"50" minimum:"1" maximum:"200" doc:"Max results"`
	Offset int `query:"offset" required:"false" default:"0" minimum:"0" doc:"Pagination offset"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
