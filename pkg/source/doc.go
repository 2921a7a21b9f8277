// Package source loads markup for scanning from a file, an http(s) URL or
// an S3 object.
//
// References are plain strings:
//
//	page.html
//	https://example.com/page
//	s3://bucket/path/page.html
//
// The S3 client comes from the default AWS configuration chain unless one
// is supplied:
//
//	cli, _ := source.NewS3Client(ctx, source.S3Options{Region: "eu-west-1"})
//	l := source.NewLoader(source.WithS3(cli))
//	doc, err := l.Load(ctx, "s3://site/index.html")
package source
