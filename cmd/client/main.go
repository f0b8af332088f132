package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atinyakov/BurnLink/internal/client"
	"github.com/atinyakov/BurnLink/internal/crypto"
	"github.com/atinyakov/BurnLink/internal/models"
)

var (
	version   string
	buildDate string
)

// send encrypts the plaintext and creates a secret on the server. With a
// password it uses password-mode (the link carries only the id); otherwise
// it generates a key and embeds it in the link fragment.
func send(ctx context.Context, c *client.Client, baseURL, data, password string, views, ttl int) error {
	var (
		env *models.Envelope
		key []byte
		err error
	)
	if password != "" {
		env, err = crypto.SealWithPassword([]byte(data), password)
	} else {
		if key, err = crypto.GenerateKey(); err != nil {
			return err
		}
		env, err = crypto.SealWithKey([]byte(data), key)
	}
	if err != nil {
		return err
	}

	resp, err := c.CreateSecret(ctx, env, views, ttl)
	if err != nil {
		return err
	}

	fmt.Println("Share link:", client.BuildShareLink(baseURL, resp.ExternalID, key))
	fmt.Println("Expires at:", time.UnixMilli(resp.ExpiresAt).Format(time.RFC3339))
	fmt.Println("Max views: ", resp.MaxViews)
	if password != "" {
		fmt.Println("Convey the password out-of-band; the link alone cannot decrypt the secret.")
	}
	return nil
}

// open consumes one view of a secret and decrypts it.
func open(ctx context.Context, c *client.Client, link, password string) error {
	externalID, key, err := client.ParseShareLink(link)
	if err != nil {
		return err
	}

	resp, err := c.ViewSecret(ctx, externalID)
	switch {
	case errors.Is(err, client.ErrNotFound):
		return errors.New("secret not found: it may have expired or never existed")
	case errors.Is(err, client.ErrExhausted):
		return errors.New("secret already viewed the maximum number of times")
	case err != nil:
		return err
	}

	env, err := models.ParseEnvelope(resp.Envelope)
	if err != nil {
		return err
	}

	var plaintext []byte
	switch env.Type {
	case models.EnvelopeKey:
		if key == nil {
			return errors.New("link carries no key for a key-mode secret")
		}
		plaintext, err = crypto.OpenWithKey(env, key)
	case models.EnvelopePassword:
		if password == "" {
			return errors.New("secret requires a password (-password)")
		}
		plaintext, err = crypto.OpenWithPassword(env, password)
	}
	if errors.Is(err, crypto.ErrDecryptionFailed) {
		// The view was already consumed server-side; say so.
		return fmt.Errorf("decryption failed (wrong password or corrupted data); view %d of %d was consumed", resp.ViewCount, resp.MaxViews)
	}
	if err != nil {
		return err
	}

	fmt.Println(string(plaintext))
	remaining := resp.MaxViews - resp.ViewCount
	if resp.IsLastView {
		fmt.Fprintln(os.Stderr, "This was the last view; the secret is now destroyed.")
	} else {
		fmt.Fprintf(os.Stderr, "Views remaining: %d\n", remaining)
	}
	return nil
}

// main parses command-line flags and dispatches to the send, open, or
// genpass commands.
func main() {
	var (
		cmd      string
		baseURL  string
		data     string
		link     string
		password string
		views    int
		ttl      int
		length   int
		noUpper  bool
		noLower  bool
		noDigits bool
		symbols  bool
		showVer  bool
	)

	flag.StringVar(&cmd, "cmd", "", "command: send | open | genpass")
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	flag.StringVar(&data, "data", "", "secret text to send (reads stdin if empty)")
	flag.StringVar(&link, "link", "", "share link to open")
	flag.StringVar(&password, "password", "", "password for password-mode secrets")
	flag.IntVar(&views, "views", 1, "maximum number of views")
	flag.IntVar(&ttl, "ttl", 24, "time to live in hours")
	flag.IntVar(&length, "length", 20, "generated password length")
	flag.BoolVar(&noUpper, "no-upper", false, "exclude uppercase letters")
	flag.BoolVar(&noLower, "no-lower", false, "exclude lowercase letters")
	flag.BoolVar(&noDigits, "no-digits", false, "exclude digits")
	flag.BoolVar(&symbols, "symbols", false, "include symbols")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("BurnLink Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	ctx := context.Background()
	c := client.New(baseURL, nil)

	var err error
	switch cmd {
	case "send":
		if data == "" {
			raw, readErr := io.ReadAll(os.Stdin)
			if readErr != nil {
				err = readErr
				break
			}
			data = string(raw)
		}
		err = send(ctx, c, baseURL, data, password, views, ttl)
	case "open":
		if link == "" {
			err = errors.New("open requires -link")
			break
		}
		err = open(ctx, c, link, password)
	case "genpass":
		opts := crypto.PasswordOptions{
			Upper:            !noUpper,
			Lower:            !noLower,
			Digits:           !noDigits,
			Symbols:          symbols,
			ExcludeAmbiguous: true,
		}
		var pw string
		if pw, err = crypto.GeneratePassword(length, opts); err == nil {
			fmt.Println(pw)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
