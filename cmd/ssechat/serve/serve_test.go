package servecmder

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("has --listen flag with default value", func() {
		cmd := NewServeCmd()
		flag := cmd.Flags().Lookup("listen")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("l"))
		Expect(flag.DefValue).To(Equal(":8000"))
	})

	It("has --token-delay and --log-file flags", func() {
		cmd := NewServeCmd()
		Expect(cmd.Flags().Lookup("token-delay").DefValue).To(Equal("50ms"))
		Expect(cmd.Flags().Lookup("log-file")).NotTo(BeNil())
	})
})

var _ = Describe("ServeCommander", func() {
	Describe("backendConfig", func() {
		It("parses the token delay", func() {
			c := &ServeCommander{listen: ":9000", tokenDelay: "20ms"}

			cfg, err := c.backendConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ListenAddr).To(Equal(":9000"))
			Expect(cfg.TokenDelay).To(Equal(20 * time.Millisecond))
		})

		It("accepts a zero delay", func() {
			c := &ServeCommander{tokenDelay: "0"}

			cfg, err := c.backendConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.TokenDelay).To(BeZero())
		})

		It("rejects invalid and negative delays", func() {
			_, err := (&ServeCommander{tokenDelay: "later"}).backendConfig()
			Expect(err).To(MatchError(ContainSubstring("invalid token delay")))

			_, err = (&ServeCommander{tokenDelay: "-1s"}).backendConfig()
			Expect(err).To(MatchError(ContainSubstring("must not be negative")))
		})
	})

	Describe("newLogger", func() {
		It("also writes JSON records to the log file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "backend.log")
			c := &ServeCommander{logFile: path}

			l, closeLog, err := c.newLogger()
			Expect(err).NotTo(HaveOccurred())

			l.Info("backend ready", "listen", ":8000")
			Expect(closeLog()).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			var record map[string]any
			Expect(json.Unmarshal(data, &record)).To(Succeed())
			Expect(record).To(HaveKeyWithValue("msg", "backend ready"))
			Expect(record).To(HaveKeyWithValue("listen", ":8000"))
		})

		It("fails when the log file cannot be opened", func() {
			c := &ServeCommander{logFile: filepath.Join(GinkgoT().TempDir(), "missing", "backend.log")}

			_, _, err := c.newLogger()
			Expect(err).To(MatchError(ContainSubstring("opening log file")))
		})
	})
})
