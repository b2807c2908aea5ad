// Command poolcrypt encrypts a wallet pool ("address:secret,..." pairs) into
// the file format read by wallets.encrypted_path, or decrypts one for review.
//
//	poolcrypt -in pairs.txt -out wallets.enc -password ...
//	poolcrypt -decrypt -in wallets.enc -password ...
//
// The password may also be supplied via VEXOR_WALLETS_PASSWORD.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/alanyoungcy/vexorbot/internal/crypto"
	"github.com/alanyoungcy/vexorbot/internal/wallet"
)

func main() {
	in := flag.String("in", "-", "input file, or - for stdin")
	out := flag.String("out", "-", "output file, or - for stdout")
	password := flag.String("password", os.Getenv("VEXOR_WALLETS_PASSWORD"), "encryption password")
	decrypt := flag.Bool("decrypt", false, "decrypt instead of encrypt")
	flag.Parse()

	if err := run(*in, *out, *password, *decrypt); err != nil {
		fmt.Fprintf(os.Stderr, "poolcrypt: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out, password string, decrypt bool) error {
	data, err := readInput(in)
	if err != nil {
		return err
	}

	var result []byte
	if decrypt {
		plain, err := crypto.DecryptPool(data, password)
		if err != nil {
			return err
		}
		result = []byte(plain + "\n")
	} else {
		creds, err := wallet.ParsePairs(string(data))
		if err != nil {
			return err
		}
		result, err = crypto.EncryptPool(string(data), password)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "encrypted %d wallets\n", len(creds))
	}

	if out == "-" {
		_, err = os.Stdout.Write(result)
		return err
	}
	return os.WriteFile(out, result, 0o600)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
