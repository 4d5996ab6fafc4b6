package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/audiosessions/backend/internal/model/catalog"
)

func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for PRIVATE_ZONE_PASSWORD_HASH",
		Long: `Hashes the private zone password so it can be configured through
PRIVATE_ZONE_PASSWORD_HASH instead of keeping the plain text in the environment.
The password is read from standard input when no argument is given.`,
		Example: `  audiosessions hash-password 'my secret'
  echo -n 'my secret' | audiosessions hash-password`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			hash, err := hashPassword(password, cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}

	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost factor")

	return cmd
}

func hashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	if len(password) > 72 {
		return "", errors.New("password must be at most 72 bytes")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

type catalogListing struct {
	Genre        string            `json:"genre"`
	RequiresAuth bool              `json:"requires_auth"`
	Count        int               `json:"count"`
	Sessions     []catalog.Session `json:"sessions"`
}

func newCatalogCmd() *cobra.Command {
	var genre string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the bundled session catalog as JSON",
		Example: `  audiosessions catalog
  audiosessions catalog --genre house`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listings, err := buildListings(catalog.NewMemoryStore(catalog.Seed()), genre)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(listings, "", "  ")
			if err != nil {
				return fmt.Errorf("encode catalog: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "only print this genre")

	return cmd
}

func buildListings(store catalog.Store, only string) ([]catalogListing, error) {
	genres := store.Genres()
	if only != "" {
		if !store.Has(only) {
			return nil, fmt.Errorf("unknown genre %q", only)
		}
		genres = []string{only}
	}

	listings := make([]catalogListing, 0, len(genres))
	for _, genre := range genres {
		sessions, err := store.List(genre)
		if err != nil {
			return nil, err
		}
		listings = append(listings, catalogListing{
			Genre:        genre,
			RequiresAuth: catalog.RequiresAuth(genre),
			Count:        len(sessions),
			Sessions:     sessions,
		})
	}
	return listings, nil
}
