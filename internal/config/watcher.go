package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// StartWatcher reloads the configuration whenever the file on disk changes,
// so edits made through the UI or a text editor apply without a restart.
func StartWatcher(onReload func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Editors often replace the file instead of writing in
				// place, which drops the watch
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					if err := watcher.Add(configPath); err != nil {
						log.Error().Err(err).Msg("Lost watch on configuration file")
					}
				}

				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}

				log.Info().Str("file", event.Name).Msg("Configuration file changed on disk")

				if err := Reload(); err != nil {
					log.Error().Err(err).Msg("Keeping previous configuration after failed reload")
					continue
				}

				if onReload != nil {
					onReload()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Err(err).Msg("Configuration watcher error")
			}
		}
	}()

	if err := watcher.Add(configPath); err != nil {
		return err
	}

	log.Info().Str("path", configPath).Msg("Watching configuration file")
	return nil
}
