/*
Package teco implements the request runtime shared by all Tencent Cloud
style service clients: service configuration, request construction,
TC3-HMAC-SHA256 signing, response decoding into typed errors, retries and
shutdown.

A minimal call looks like this:

	provider := credential.NewEnv()
	client := teco.NewClient(provider, teco.Options{})
	defer client.Close(context.Background())

	cfg := teco.NewServiceConfig("cvm", "2017-03-12", teco.WithRegion(&region.Guangzhou))

	var out DescribeInstancesResponse
	err := client.Execute(ctx, cfg, teco.Operation{
		Action: "DescribeInstances",
		Method: http.MethodPost,
		Input:  DescribeInstancesRequest{Limit: 10},
	}, &out)

Service packages are expected to wrap Execute with generated, typed calls;
everything in this package is service-agnostic.
*/
package teco
