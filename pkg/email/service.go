// pkg/email/service.go
package email

var GlobalEmailService *EmailService

func InitEmailService(apiKey, from string) error {
	service, err := NewEmailService(apiKey, from)
	if err != nil {
		return err
	}
	GlobalEmailService = service
	return nil
}
