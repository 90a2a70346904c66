package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
)

// StripeConfig настройки Stripe Checkout
type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	Currency   string
}

// StripeGateway создает Checkout Session на сумму записи
type StripeGateway struct {
	sessions checkoutsession.Client
	cfg      StripeConfig
}

// NewStripeGateway создает шлюз. Клиент использует собственный ключ, а не глобальный stripe.Key.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	return &StripeGateway{
		sessions: checkoutsession.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey},
		cfg:      cfg,
	}
}

// CreateCheckout создает одноразовую сессию оплаты.
// Ключ идемпотентности привязан к записи, повторный вызов вернет ту же сессию.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	cents := toMinorUnits(req.Amount)
	if cents <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, req.Amount)
	}

	appointmentID := strconv.FormatInt(req.AppointmentID, 10)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ClientReferenceID: stripe.String(appointmentID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(g.cfg.Currency),
					UnitAmount: stripe.Int64(cents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String("appointment-" + appointmentID)
	params.AddMetadata("appointment_id", appointmentID)
	params.AddMetadata("client_id", strconv.FormatInt(req.ClientID, 10))

	sess, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrProvider, err)
	}

	return &Checkout{Reference: sess.ID, RedirectURL: sess.URL}, nil
}

// NoopGateway используется, когда платежи не настроены: запись создается без ссылки на оплату
type NoopGateway struct{}

func (NoopGateway) CreateCheckout(context.Context, CheckoutRequest) (*Checkout, error) {
	return nil, nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
