package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"

	grpcapi "healthcare-portal-service/internal/api/grpc"
)

func main() {
	grpcAddr := flag.String("grpc", "localhost:50051", "gRPC server address")
	httpBase := flag.String("http", "http://localhost:8080", "HTTP base URL")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := grpc.NewClient(*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("Connected to server")

	health := grpc_health_v1.NewHealthClient(conn)
	for _, svc := range []string{"", grpcapi.ServiceName} {
		resp, err := health.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: svc})
		if err != nil {
			log.Fatalf("health check %q failed: %v", svc, err)
		}
		log.Printf("Health %q: %s", svc, resp.GetStatus())
	}

	client := &http.Client{Timeout: 5 * time.Second}
	for _, path := range []string{
		"/v1/readiness",
		"/v1/i18n/languages",
		"/v1/meetings/A123?role=patient",
		"/v1/records/doctors",
	} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, *httpBase+path, nil)
		if err != nil {
			log.Fatalf("bad request %s: %v", path, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			log.Fatalf("GET %s failed: %v", path, err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		log.Printf("GET %s -> %d %s", path, resp.StatusCode, body)
	}
}
