package quota

import (
	"context"
	"fmt"
	"log"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/mail"
	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/whatsapp"
)

// Notifier sends the one-time limit notice over WhatsApp and mail,
// whichever contact channels the shop has on file.
type Notifier struct {
	Sender whatsapp.Sender
	Mailer *mail.Mailer
}

func NewNotifier(sender whatsapp.Sender, mailer *mail.Mailer) *Notifier {
	return &Notifier{Sender: sender, Mailer: mailer}
}

func (n *Notifier) NotifyLimitReached(ctx context.Context, shop *models.Shop) {
	msg := fmt.Sprintf(
		"Your back-in-stock notification quota for the %s plan is used up. "+
			"Upgrade your plan to keep notifying your customers.", shop.Plan)

	if n.Sender != nil && shop.NotifyPhone != "" {
		if _, err := n.Sender.SendText(ctx, shop.NotifyPhone, msg); err != nil {
			log.Printf("limit notice via whatsapp failed for shop %s: %v", shop.Domain, err)
		}
	}
	if n.Mailer != nil && shop.NotifyEmail != "" {
		body := fmt.Sprintf("<p>%s</p>", msg)
		if err := n.Mailer.Send(shop.NotifyEmail, "Notification limit reached", body); err != nil {
			log.Printf("limit notice via mail failed for shop %s: %v", shop.Domain, err)
		}
	}
}
