package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/placard/binding"
	"github.com/ByLCY/placard/cache"
	"github.com/ByLCY/placard/dsl"
	"github.com/ByLCY/placard/layout"
	"github.com/ByLCY/placard/renderer"
	canvasrenderer "github.com/ByLCY/placard/renderer/canvas"
)

// config 汇总命令行参数。
type config struct {
	input         string
	templateName  string
	dataPath      string
	sentencesPath string
	fieldsPath    string
	imagesPath    string
	seed          int64
	randomize     bool
	format        renderer.Format
	output        string
	debugPath     string
	color         *layout.Color
	outline       bool
	dpi           float64
	cacheTTL      time.Duration
}

func main() {
	input := flag.String("in", "examples/signs.placard", "模板 DSL 文件路径")
	templateName := flag.String("template", "", "模板名称，默认为文件中的第一个模板")
	dataPath := flag.String("data", "", "YAML/JSON 数据文件")
	sentencesPath := flag.String("sentences", "sentences", "数据中句子列表的路径")
	fieldsPath := flag.String("fields", "fields", "数据中字段取值映射的路径")
	imagesPath := flag.String("images", "images", "数据中图片路径列表的路径（相对数据文件）")
	seed := flag.Int64("seed", 0, "随机种子（32 位整数），-randomize 且为 0 时随机选取")
	randomize := flag.Bool("randomize", false, "按种子打乱句子与图片")
	format := flag.String("format", "pdf", "输出格式：pdf、svg 或 png")
	output := flag.String("out", "", "输出路径，默认为 output/sign.<format>")
	debug := flag.String("debug", "", "排版调试 JSON 输出路径")
	colorHex := flag.String("color", "", "前景色，例如 #c00000")
	outline := flag.Bool("outline", false, "绘制字段外框")
	dpi := flag.Float64("dpi", 150, "PNG 输出分辨率")
	redisAddr := flag.String("redis", "", "Redis 地址，设置后启用渲染缓存")
	redisPassword := flag.String("redis-password", "", "Redis 密码")
	redisDB := flag.Int("redis-db", 0, "Redis 数据库编号")
	cacheTTL := flag.Duration("cache-ttl", time.Hour, "渲染缓存有效期")
	watch := flag.Bool("watch", false, "模板或数据文件变化时重新生成")
	flag.Parse()

	f, err := renderer.ParseFormat(*format)
	if err != nil {
		log.Fatal(err)
	}
	if err := checkSeed(*seed); err != nil {
		log.Fatal(err)
	}
	cfg := config{
		input:         *input,
		templateName:  *templateName,
		dataPath:      *dataPath,
		sentencesPath: *sentencesPath,
		fieldsPath:    *fieldsPath,
		imagesPath:    *imagesPath,
		seed:          *seed,
		randomize:     *randomize,
		format:        f,
		output:        *output,
		debugPath:     *debug,
		outline:       *outline,
		dpi:           *dpi,
		cacheTTL:      *cacheTTL,
	}
	if cfg.output == "" {
		cfg.output = filepath.Join("output", "sign."+string(f))
	}
	if *colorHex != "" {
		c, err := layout.ParseColor(*colorHex)
		if err != nil {
			log.Fatalf("解析颜色失败: %v", err)
		}
		cfg.color = &c
	}
	if cfg.randomize && cfg.seed == 0 {
		cfg.seed = randomSeed(rand.New(rand.NewSource(time.Now().UnixNano())))
		log.Printf("[INFO] seed %d", cfg.seed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var store cache.Store
	switch {
	case *redisAddr != "":
		rs := cache.NewRedisStore(*redisAddr, *redisPassword, *redisDB)
		defer rs.Close()
		if err := rs.Ping(ctx); err != nil {
			log.Printf("[WARN] redis %s 不可用，将直接渲染: %v", *redisAddr, err)
		}
		store = rs
	case *watch:
		store = cache.NewMemoryStore()
	}

	if err := run(ctx, cfg, store); err != nil {
		if !*watch {
			log.Fatalf("生成招牌失败: %v", err)
		}
		log.Printf("[WARN] 生成招牌失败: %v", err)
	} else {
		fmt.Printf("已生成：%s\n", cfg.output)
	}

	if *watch {
		if err := watchAndRun(ctx, cfg, store); err != nil {
			log.Fatalf("监听文件失败: %v", err)
		}
	}
}

// maxRandomSeed 为自动选取种子的上界（不含）。
const maxRandomSeed = 1000000

// randomSeed 在 [0, maxRandomSeed) 内选取种子，保证线性同余的中间值不溢出。
func randomSeed(src *rand.Rand) int64 { return src.Int63n(maxRandomSeed) }

// checkSeed 拒绝超出 32 位范围的种子：更大的种子会使随机序列退化。
func checkSeed(seed int64) error {
	if seed < math.MinInt32 || seed > math.MaxInt32 {
		return fmt.Errorf("种子 %d 超出 32 位整数范围", seed)
	}
	return nil
}

// run 串联解析、构建、数据绑定与渲染。store 为 nil 时不使用缓存。
func run(ctx context.Context, cfg config, store cache.Store) error {
	if err := checkSeed(cfg.seed); err != nil {
		return err
	}
	file, err := os.Open(cfg.input)
	if err != nil {
		return fmt.Errorf("无法打开模板文件 %s: %w", cfg.input, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return fmt.Errorf("解析 DSL 失败: %w", err)
	}

	cr := canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
		BaseDir: filepath.Dir(cfg.input),
		Format:  cfg.format,
		DPI:     cfg.dpi,
	})
	set, err := layout.Build(doc, layout.BuildOptions{Assets: cr})
	if err != nil {
		return fmt.Errorf("构建模板失败: %w", err)
	}
	cr.SetMeta(set.Meta)

	tpl, err := selectTemplate(set, cfg.templateName)
	if err != nil {
		return err
	}

	data, err := loadData(cfg.dataPath)
	if err != nil {
		return err
	}
	values, err := bindValues(set, data, cfg)
	if err != nil {
		return err
	}
	images, err := loadImages(cr, data, cfg)
	if err != nil {
		return err
	}

	req := layout.Request{
		Template: binding.Static(tpl, data),
		Values:   values,
		Images:   images,
		Options: layout.RenderOptions{
			Seed:  cfg.seed,
			Color: cfg.color,
			Debug: cfg.outline,
		},
	}

	var r renderer.Renderer = cr
	if store != nil {
		r = cache.NewRenderer(cr, store, cfg.cacheTTL, nil)
	}
	out, err := r.Render(ctx, req)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(cfg.output, out.Data, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	if cfg.debugPath != "" {
		if out.Result == nil {
			log.Printf("[WARN] 输出来自缓存，未生成调试 JSON %s", cfg.debugPath)
			return nil
		}
		if err := writeDebug(out.Result, cfg.debugPath); err != nil {
			return err
		}
	}
	return nil
}

func selectTemplate(set *layout.TemplateSet, name string) (*layout.Template, error) {
	if name == "" {
		return set.Templates[0], nil
	}
	tpl, ok := set.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("模板 %q 不存在，可用：%q", name, set.Names())
	}
	return tpl, nil
}

// loadData 读取 YAML（或 JSON）数据文件；path 为空时返回 nil。
func loadData(path string) (any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取数据文件失败: %w", err)
	}
	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析数据文件 %s 失败: %w", path, err)
	}
	return data, nil
}

// bindValues 把句子依次分配给所有模板的输入字段，再用 fields 映射覆盖。
func bindValues(set *layout.TemplateSet, data any, cfg config) (map[string]string, error) {
	values := map[string]string{}
	if data == nil {
		return values, nil
	}
	if _, ok := binding.Lookup(data, cfg.sentencesPath); ok {
		sentences, err := binding.Sentences(data, cfg.sentencesPath)
		if err != nil {
			return nil, err
		}
		if cfg.randomize {
			sentences = binding.ShuffleSentences(sentences, cfg.seed)
		}
		values = binding.Bind(set.FieldNames(), sentences)
	}
	explicit, err := binding.Values(data, cfg.fieldsPath)
	if err != nil {
		return nil, err
	}
	for k, v := range explicit {
		values[k] = v
	}
	return values, nil
}

// loadImages 读取数据中列出的图片，路径相对数据文件所在目录。
func loadImages(cr *canvasrenderer.Renderer, data any, cfg config) ([]layout.Image, error) {
	if data == nil {
		return nil, nil
	}
	if _, ok := binding.Lookup(data, cfg.imagesPath); !ok {
		return nil, nil
	}
	paths, err := binding.Sentences(data, cfg.imagesPath)
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Dir(cfg.dataPath)
	images := make([]layout.Image, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			if p, err = filepath.Abs(filepath.Join(baseDir, p)); err != nil {
				return nil, err
			}
		}
		img, err := cr.ReadImage(p)
		if err != nil {
			log.Printf("[WARN] 跳过图片: %v", err)
			continue
		}
		images = append(images, *img)
	}
	if cfg.randomize {
		images = binding.ShuffleImages(images, cfg.seed)
	}
	return images, nil
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
