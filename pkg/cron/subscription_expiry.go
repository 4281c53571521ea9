package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"socksflow_backend/internal/model"
	"socksflow_backend/pkg/database"
	"socksflow_backend/pkg/email"
)

func InitSubscriptionExpiryCron() {
	c := cron.New()

	_, err := c.AddFunc("0 9 * * *", func() {
		expireOverdueSubscriptions()
		checkExpiringSubscriptions()
	})

	if err != nil {
		log.Printf("Could not initialize subscription expiry cron: %v", err)
		return
	}

	c.Start()
}

// expireOverdueSubscriptions flips active subscriptions past their expiry
// to expired. Renew brings them back; nothing else does.
func expireOverdueSubscriptions() {
	result := database.DB.Model(&model.Subscription{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.SubscriptionActive, time.Now().UTC()).
		Update("status", model.SubscriptionExpired)

	if result.Error != nil {
		log.Printf("Error expiring overdue subscriptions: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Expired %d overdue subscriptions", result.RowsAffected)
	}
}

func checkExpiringSubscriptions() {
	log.Println("Checking for expiring subscriptions...")

	warningDays := []int{7, 3}

	for _, days := range warningDays {
		var subs []model.Subscription
		targetDate := time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")

		err := database.DB.Where("DATE(expires_at) = ? AND status = ?", targetDate, model.SubscriptionActive).
			Preload("User").
			Find(&subs).Error

		if err != nil {
			log.Printf("Error fetching expiring subscriptions: %v", err)
			continue
		}

		log.Printf("Found %d subscriptions expiring in %d days", len(subs), days)

		for _, sub := range subs {
			if email.GlobalEmailService == nil || sub.ExpiresAt == nil {
				continue
			}

			err := email.GlobalEmailService.SendSubscriptionExpiryWarning(
				sub.User.Email,
				sub.User.Name,
				sub.PlanName,
				*sub.ExpiresAt,
				days,
			)
			if err != nil {
				log.Printf("Error sending expiry warning to %s: %v", sub.User.Email, err)
			}
		}
	}
}
