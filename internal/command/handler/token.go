package command

import (
	"salesdesk/internal/service"

	"github.com/spf13/cobra"
)

type TokenHandler struct {
	authService *service.AuthService
}

func NewTokenHandler(authService *service.AuthService) *TokenHandler {
	return &TokenHandler{authService: authService}
}

// Issue 簽發 admin API 用的 bearer token
func (handler *TokenHandler) Issue(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	token, err := handler.authService.IssueToken(username, ttl)
	if err != nil {
		return err
	}
	cmd.Printf("token:      %s\n", token.Token)
	cmd.Printf("expires at: %s\n", token.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	return nil
}
