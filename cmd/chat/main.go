package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avolkov/quickchat/internal/client"
)

var serverURL string

func main() {
	root := &cobra.Command{
		Use:          "quickchat",
		Short:        "Terminal client for the quickchat server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "quickchat server base URL")

	root.AddCommand(registerCmd(), loginCmd(), logoutCmd(), avatarCmd(), contactsCmd(), chatCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func registerCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.NewAPI(serverURL)
			session, err := api.Register(cmd.Context(), username, email, password)
			if err != nil {
				return err
			}
			if err := client.SaveSession(session); err != nil {
				return err
			}
			fmt.Printf("registered as %s\n", session.Username)
			fmt.Println("run 'quickchat avatar' to pick an avatar before chatting")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := client.NewAPI(serverURL)
			session, err := api.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if err := client.SaveSession(session); err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", session.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear presence on the server and drop the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}
			api := apiWithSession(session)
			if err := api.Logout(cmd.Context(), session.ID); err != nil {
				return err
			}
			if err := client.ClearSession(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func avatarCmd() *cobra.Command {
	var service, seed string
	cmd := &cobra.Command{
		Use:   "avatar",
		Short: "Fetch a generated avatar and set it on the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			image, err := client.FetchAvatar(cmd.Context(), service, seed)
			if err != nil {
				return err
			}

			api := apiWithSession(session)
			if err := api.SetAvatar(cmd.Context(), session.ID, image); err != nil {
				return err
			}

			session.AvatarImage = image
			session.AvatarSet = true
			if err := client.SaveSession(session); err != nil {
				return err
			}
			fmt.Println("avatar set")
			return nil
		},
	}
	cmd.Flags().StringVar(&service, "service", client.DefaultAvatarService, "avatar generation service URL")
	cmd.Flags().StringVar(&seed, "seed", "", "avatar seed (random if empty)")
	return cmd
}

func contactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts",
		Short: "List other users",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := loadCompleteSession()
			if err != nil {
				return err
			}
			api := apiWithSession(session)
			contacts, err := api.Contacts(cmd.Context(), session.ID)
			if err != nil {
				return err
			}
			if len(contacts) == 0 {
				fmt.Println("no contacts yet")
				return nil
			}
			for _, contact := range contacts {
				fmt.Printf("%s\t%s\n", contact.Username, contact.ID)
			}
			return nil
		},
	}
}

func apiWithSession(session *client.Session) *client.API {
	api := client.NewAPI(serverURL)
	api.SetToken(session.Token)
	return api
}

// loadCompleteSession enforces the avatar-before-contacts flow.
func loadCompleteSession() (*client.Session, error) {
	session, err := client.LoadSession()
	if err != nil {
		return nil, err
	}
	if !session.AvatarSet {
		return nil, fmt.Errorf("set an avatar first: quickchat avatar")
	}
	return session, nil
}
