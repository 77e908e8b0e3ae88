package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ByLCY/placard/cache"
)

// debounce 合并编辑器保存时连续产生的写事件。
const debounce = 200 * time.Millisecond

// watchAndRun 监听模板与数据文件，写入后重新生成，直到 ctx 结束。
func watchAndRun(ctx context.Context, cfg config, store cache.Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// 监听所在目录，编辑器以重命名方式保存时文件本身的监听会失效。
	watched := map[string]bool{}
	targets := map[string]bool{}
	for _, path := range []string{cfg.input, cfg.dataPath} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		targets[abs] = true
		dir := filepath.Dir(abs)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("监听 %s 失败: %w", dir, err)
		}
		watched[dir] = true
	}
	log.Printf("[INFO] watching %s", cfg.input)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !targets[name] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				timer = time.After(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher: %v", err)
		case <-timer:
			timer = nil
			if err := run(ctx, cfg, store); err != nil {
				log.Printf("[WARN] 生成招牌失败: %v", err)
				continue
			}
			log.Printf("[INFO] regenerated %s", cfg.output)
		}
	}
}
