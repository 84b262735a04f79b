package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/pribylovaa/reddit-gallery/internal/config"
	"github.com/pribylovaa/reddit-gallery/internal/feed"
	"github.com/pribylovaa/reddit-gallery/internal/listing"
	"github.com/pribylovaa/reddit-gallery/internal/service"
	"github.com/pribylovaa/reddit-gallery/pkg/log"
)

// newDumpCmd — синхронный обход страниц листинга: нормализованные элементы
// печатаются в stdout по одному JSON на строку, логи уходят в stderr.
func newDumpCmd(configPath *string) *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Fetch listing pages and print normalized media items as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			const op = "main.dump"

			if pages <= 0 {
				return fmt.Errorf("%s: --pages must be > 0", op)
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			lg := setupLogger(cfg.Env, cmd.ErrOrStderr())
			ctx := log.Into(cmd.Context(), lg)

			path, err := service.NormalizePath(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			client := listing.NewClient(&http.Client{Timeout: cfg.Timeouts.Fetch}, cfg.Listing.UserAgent)
			pager := feed.NewPager(client, listing.NewParser(cfg.Listing.Origin), feed.Options{
				Path:     path,
				PageSize: cfg.Listing.PageSize,
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			written := 0

			for page := 1; page <= pages; page++ {
				if err := pager.LoadNext(ctx); err != nil {
					// Нет конверта данных — листинг закончился.
					if errors.Is(err, listing.ErrUpstreamEmpty) {
						lg.Info("dump_end_of_listing", slog.Int("page", page))
						break
					}
					return fmt.Errorf("%s: page %d: %w", op, page, err)
				}

				for _, it := range pager.Items(written, pager.Len()-written) {
					if err := enc.Encode(it); err != nil {
						return fmt.Errorf("%s: encode: %w", op, err)
					}
				}
				written = pager.Len()
			}

			cursor, _ := pager.Cursor()
			lg.Info("dump_done",
				slog.String("path", path),
				slog.Int("items", written),
				slog.String("cursor", cursor),
			)

			return nil
		},
	}

	cmd.Flags().IntVarP(&pages, "pages", "n", 1, "number of pages to fetch")

	return cmd
}
