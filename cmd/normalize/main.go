package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"doc-reader/internal/document"
	"doc-reader/internal/textnorm"
)

func main() {
	var (
		conversions = flag.String("conversions", "text_conversions.json", "Путь к словарю замен")
		lang        = flag.String("lang", "es", "Язык числительных")
		acronyms    = flag.Bool("acronyms", false, "Читать аббревиатуры по буквам")
		verbose     = flag.Bool("v", false, "Подробный лог в stderr")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Использование: %s [флаги] [файл.txt|файл.docx|файл.pdf]\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Без файла текст читается из stdin.")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			log.Fatal("Ошибка инициализации логгера:", err)
		}
	}
	defer logger.Sync()

	normalizer, err := textnorm.New(textnorm.Config{
		Language:        *lang,
		ConversionsPath: *conversions,
		SpellAcronyms:   *acronyms,
	}, logger)
	if err != nil {
		log.Fatalf("Ошибка создания нормализатора: %v", err)
	}

	text, err := readInput(flag.Arg(0), logger)
	if err != nil {
		log.Fatalf("Ошибка чтения текста: %v", err)
	}

	fmt.Println(normalizer.Process(text))
}

// readInput читает документ по пути или stdin, если путь пустой
func readInput(path string, logger *zap.Logger) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return document.NewLoader(logger, 0).Load(path, f)
}
