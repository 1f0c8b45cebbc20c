package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rafiq-chat/backend/internal/config"
	"github.com/rafiq-chat/backend/internal/model/chat"
	"github.com/rafiq-chat/backend/internal/model/persona"
	"github.com/rafiq-chat/backend/internal/service/ai"
	chatservice "github.com/rafiq-chat/backend/internal/service/chat"
	"github.com/rafiq-chat/backend/internal/service/conversation"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("无法加载 .env，改用系统环境变量")
	}

	mode := flag.String("mode", "chat", "测试模式: prompt 或 chat")
	message := flag.String("message", "", "单轮消息，留空则从标准输入逐行读取")
	provider := flag.String("provider", "", "覆盖 AI_PROVIDER")
	noStream := flag.Bool("no-stream", false, "关闭流式调用")
	timeout := flag.Duration("timeout", 2*time.Minute, "单轮请求超时时间")
	flag.Parse()

	if *mode != "prompt" && *mode != "chat" {
		flag.Usage()
		log.Fatal().Msg("请通过 -mode=prompt 或 -mode=chat 指定测试模式")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("配置加载失败")
	}
	if *provider != "" {
		cfg.AI.Provider = strings.ToLower(*provider)
	}
	if *noStream {
		cfg.AI.StreamResponse = false
	}
	cfg.AI.Timeout = *timeout

	ctx := context.Background()
	p := persona.Rafiq()

	svc, err := ai.NewService(ctx, p, cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("初始化 AI 服务失败")
	}

	switch *mode {
	case "prompt":
		runPrompt(ctx, svc, *message)
	case "chat":
		runChat(ctx, svc, *message, os.Stdin, os.Stdout)
	}
}

// runPrompt 只渲染模板，不调用模型
func runPrompt(ctx context.Context, svc *ai.Service, message string) {
	if strings.TrimSpace(message) == "" {
		log.Fatal().Msg("prompt 模式需要通过 -message 提供消息")
	}
	rendered, err := svc.RenderPrompt(ctx, []chat.Turn{chat.UserTurn(message)}, message)
	if err != nil {
		log.Fatal().Err(err).Msg("渲染模板失败")
	}
	fmt.Println(rendered)
}

func runChat(ctx context.Context, svc *ai.Service, message string, in io.Reader, out io.Writer) {
	sessions := chatservice.NewService()
	session, err := sessions.CreateSession(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("创建会话失败")
	}
	runner := conversation.NewService(sessions, svc)

	log.Info().Str("session", session.ID).Bool("stream", svc.StreamingEnabled()).Msg("开始对话测试")

	turn := func(text string) {
		start := time.Now()
		reply, err := runner.Submit(ctx, session.ID, text, func(chunk ai.Chunk) error {
			if chunk.Replace {
				_, err := fmt.Fprintf(out, "\n[fallback]\n%s", chunk.Text)
				return err
			}
			_, err := io.WriteString(out, chunk.Text)
			return err
		})
		fmt.Fprintln(out)
		if err != nil {
			log.Error().Err(err).Msg("对话失败")
			return
		}
		log.Info().Int("chars", len(reply.Text)).Dur("elapsed", time.Since(start)).Msg("本轮完成")
	}

	if strings.TrimSpace(message) != "" {
		turn(message)
		return
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		turn(line)
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("读取标准输入失败")
	}
}
