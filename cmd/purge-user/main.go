// purge-user permanently removes an account and its saved collection.
// Used for GDPR-style deletion requests; there is no undo.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"mediatrack/internal/auth/data"
	coldata "mediatrack/internal/collection/data"
	"mediatrack/internal/conf"
	"mediatrack/internal/pkg/database"
	"mediatrack/internal/pkg/logger"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "config file path")
	username   = flag.String("username", "", "account to purge")
	yes        = flag.Bool("yes", false, "skip the confirmation prompt")
)

func main() {
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}

	cfg, err := conf.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logCfg := cfg.Log
	logCfg.Output = "console"
	logCfg.Format = "console"
	appLog, err := logger.New(&logCfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	if !*yes {
		fmt.Printf("permanently delete account %q and its collection? [y/N] ", *username)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			fmt.Println("aborted")
			return
		}
	}

	db, err := database.New(&cfg.Database, appLog)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	items := db.Unscoped().Where("username = ?", *username).Delete(&coldata.ItemPO{})
	if items.Error != nil {
		log.Fatalf("delete collection items: %v", items.Error)
	}
	accounts := db.Unscoped().Where("username = ?", *username).Delete(&data.AccountPO{})
	if accounts.Error != nil {
		log.Fatalf("delete account: %v", accounts.Error)
	}

	fmt.Printf("purged %q: %d collection items, %d account rows\n",
		*username, items.RowsAffected, accounts.RowsAffected)
}
