package cmd

import (
	"fmt"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/services"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/spf13/cobra"
)

var adminData models.SignupData

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a user with the admin role",
	RunE: func(cmd *cobra.Command, args []string) error {
		if adminData.Username == "" || adminData.Email == "" || len(adminData.Password) < 8 {
			return fmt.Errorf("--username, --email and a --password of at least 8 characters are required")
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		users := services.NewUserService(a.db, utils.NewTokenIssuer(a.cfg.JWTSecret, a.cfg.JWTTTL), a.logger)
		user, err := users.CreateAdmin(cmd.Context(), adminData)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %d\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
	createAdminCmd.Flags().StringVar(&adminData.Username, "username", "", "Admin username")
	createAdminCmd.Flags().StringVar(&adminData.Email, "email", "", "Admin email")
	createAdminCmd.Flags().StringVar(&adminData.Password, "password", "", "Admin password")
}
