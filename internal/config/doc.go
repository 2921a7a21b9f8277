// Package config provides configuration parsing for defo projects.
//
// The configuration is stored in defo.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "prefix": "es",
//	  "views": ["gallery", "tooltip"],
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "serve": {
//	    "addr": ":7070",
//	    "allowedOrigins": ["https://app.example.com"]
//	  },
//	  "metrics": {
//	    "namespace": "defo"
//	  },
//	  "s3": {
//	    "region": "eu-west-1",
//	    "endpoint": ""
//	  }
//	}
//
// An empty views list enables every built-in observer. The DEFO_PREFIX
// environment variable overrides the prefix.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Prefix:", cfg.Prefix)
package config
